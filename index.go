package postindex

import (
	"context"
	"html/template"
	"slices"
	"strings"

	"impractical.co/postindex/internal/pagination"
)

// Page kinds. Every index page is an "index"; the first page of the main
// index is also a "main_index", and per-author indexes are "author_page".
const (
	PageKindIndex     = "index"
	PageKindMainIndex = "main_index"
	PageKindAuthor    = "author_page"
)

var (
	_ Renderable    = IndexPage{}
	_ ComponentUser = IndexPage{}
)

// IndexPage is one page of a paginated list of posts.
type IndexPage struct {
	Layout       BaseLayout
	Pagination   PageNavigation
	Helper       IndexHelper
	Comments     Comments
	Translations FeedTranslations
	Math         Math

	// Overrides are template paths parsed after index.tmpl, letting a
	// theme redefine the title, extra_head, content_header or content
	// regions.
	Overrides []string

	Lang      string
	PageTitle string
	PageKind  []string

	// Permalink is the URL path of this page.
	Permalink string
	IndexFile string
	Posts     []Post

	FrontIndexHeader template.HTML

	// PageLinks holds the URL path of every page of this index. With
	// fewer than two pages it's left empty and no navigation renders.
	PageLinks   []string
	CurrentPage int
	PrevLink    string
	NextLink    string

	PrevNextLinksReversed bool
	IndexTeasers          bool
	AuthorPagesGenerated  bool
	SiteHasComments       bool
	DateFormat            string
}

// NewIndexPage returns an IndexPage in lang with everything but the posts
// and the page's position filled in from the blog's configuration.
func NewIndexPage(b *Blog, lang string) IndexPage {
	if lang == "" {
		lang = b.Lang
	}
	languages := b.Translations
	if len(languages) == 0 {
		languages = map[string]string{b.Lang: b.Lang}
	}
	return IndexPage{
		Layout: BaseLayout{
			Stylesheets:      b.Theme.Stylesheets,
			PrintStylesheets: b.Theme.PrintStylesheets,
			Scripts:          b.Theme.Scripts,
			HeadScripts:      b.Theme.HeadScripts,
		},
		Pagination: PageNavigation{Surrounding: pagination.DefaultSurrounding},
		Comments: Comments{
			System:   b.Comments.System,
			SystemID: b.Comments.SystemID,
			Lang:     lang,
		},
		Translations: FeedTranslations{
			Lang:      lang,
			Kind:      LinkIndex,
			Languages: languages,
		},
		Math: Math{
			UseKatex:        b.Math.UseKatex,
			KatexAutoRender: b.Math.KatexAutoRender,
			MathJaxConfig:   b.Math.MathJaxConfig,
		},
		Overrides:             b.Theme.Overrides,
		Lang:                  lang,
		PageKind:              []string{PageKindIndex},
		IndexFile:             b.IndexFile,
		PrevNextLinksReversed: b.PrevNextLinksReversed,
		IndexTeasers:          b.IndexTeasers,
		AuthorPagesGenerated:  b.AuthorPages,
		SiteHasComments:       b.HasComments(),
		DateFormat:            b.DateFormat,
	}
}

func (p IndexPage) Templates(_ context.Context) []string {
	return append([]string{"index.tmpl"}, p.Overrides...)
}

func (p IndexPage) UseComponents(_ context.Context) []Component {
	return []Component{
		p.Layout,
		p.Pagination,
		p.Helper,
		p.Comments,
		p.Translations,
		p.Math,
	}
}

func (p IndexPage) Key(_ context.Context) string {
	return strings.Join(append([]string{"index.tmpl"}, p.Overrides...), "|")
}

func (p IndexPage) ExecutedTemplate(_ context.Context) string {
	return p.Layout.BaseTemplate()
}

// ShouldPrefetch reports whether the page hints the browser to prefetch its
// first post. Only the site's front page does.
func (p IndexPage) ShouldPrefetch() bool {
	if len(p.Posts) == 0 {
		return false
	}
	return p.Permalink == "/" || p.Permalink == "/"+p.IndexFile
}

// FirstPost returns the newest post on the page, or nil.
func (p IndexPage) FirstPost() Post {
	if len(p.Posts) == 0 {
		return nil
	}
	return p.Posts[0]
}

// IsMainIndex reports whether the page is the front of the main index.
func (p IndexPage) IsMainIndex() bool {
	return slices.Contains(p.PageKind, PageKindMainIndex)
}

// LinksAuthor reports whether post's byline links to its author's index.
// Posts without an author, or whose author has no usable slug, aren't
// linked.
func (p IndexPage) LinksAuthor(post Post) bool {
	return p.AuthorPagesGenerated && Slugify(post.Author()) != ""
}

// CommentsEnabled reports whether post gets a comment link.
func (p IndexPage) CommentsEnabled(post Post) bool {
	return p.SiteHasComments && !Truthy(post.Meta("nocomments"))
}

// NavigationItems lists the entries of the page navigation.
func (p IndexPage) NavigationItems() []pagination.Item {
	surrounding := p.Pagination.Surrounding
	if surrounding <= 0 {
		surrounding = pagination.DefaultSurrounding
	}
	return pagination.Navigation(p.CurrentPage, p.PageLinks, surrounding, p.PrevNextLinksReversed)
}

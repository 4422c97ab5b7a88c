package postindex

import (
	"context"
	"html/template"
	"strings"
)

var (
	_ CSSLinker = BaseLayout{}
	_ JSLinker  = BaseLayout{}
)

// BaseLayout is the document shell every index page is rendered into. It
// declares the title, extra_head and content regions.
type BaseLayout struct {
	// Stylesheets are theme stylesheets, loaded in order.
	Stylesheets []string

	// PrintStylesheets follow Stylesheets, restricted to print media.
	PrintStylesheets []string

	// Scripts are theme scripts, loaded in order at the end of the body.
	Scripts []string

	// HeadScripts load in the head.
	HeadScripts []ThemeScript
}

func (b BaseLayout) Templates(_ context.Context) []string {
	return []string{b.BaseTemplate()}
}

// BaseTemplate is the template pages built on the layout execute.
func (BaseLayout) BaseTemplate() string {
	return "base.tmpl"
}

func (b BaseLayout) LinkCSS(_ context.Context) []CSSLink {
	links := make([]CSSLink, 0, len(b.Stylesheets)+len(b.PrintStylesheets))
	for _, href := range b.Stylesheets {
		links = append(links, CSSLink{Href: href})
	}
	for _, href := range b.PrintStylesheets {
		links = append(links, CSSLink{Href: href, Media: "print"})
	}
	return links
}

func (b BaseLayout) LinkJS(_ context.Context) []JSLink {
	links := make([]JSLink, 0, len(b.HeadScripts)+len(b.Scripts))
	for _, script := range b.HeadScripts {
		links = append(links, JSLink{Src: script.Src, Async: script.Async, Defer: script.Defer})
	}
	for _, src := range b.Scripts {
		links = append(links, JSLink{Src: src, PlaceInFooter: true})
	}
	return links
}

// PageNavigation provides the page_navigation template, the numbered list of
// index pages.
type PageNavigation struct {
	// Surrounding is how many pages on each side of the current one are
	// listed.
	Surrounding int
}

func (PageNavigation) Templates(_ context.Context) []string {
	return []string{"pagination_helper.tmpl"}
}

// IndexHelper provides the html_pager template, the newer/older links at
// the bottom of an index page.
type IndexHelper struct{}

func (IndexHelper) Templates(_ context.Context) []string {
	return []string{"index_helper.tmpl"}
}

// Comments provides the comment_link and comment_link_script templates.
type Comments struct {
	System   string
	SystemID string
	Lang     string
}

func (Comments) Templates(_ context.Context) []string {
	return []string{"comments_helper.tmpl"}
}

// CommentLink is the data the comment_link template renders.
type CommentLink struct {
	System     string
	Permalink  string
	Identifier string
	Lang       string
}

// Link returns what comment_link needs to link to post's comments.
func (c Comments) Link(post Post) CommentLink {
	return CommentLink{
		System:     c.System,
		Permalink:  post.Permalink(),
		Identifier: post.BasePath(),
		Lang:       c.Lang,
	}
}

// IssoURL is the Isso server's base URL, always ending in a slash.
func (c Comments) IssoURL() string {
	if strings.HasSuffix(c.SystemID, "/") {
		return c.SystemID
	}
	return c.SystemID + "/"
}

// FeedTranslations provides the translation_link template, which links to
// the same index in the site's other languages.
type FeedTranslations struct {
	// Lang is the language of the page being rendered.
	Lang string

	// Kind is the link kind the translations point to.
	Kind string

	// Languages maps every language code of the site to its name.
	Languages map[string]string
}

func (FeedTranslations) Templates(_ context.Context) []string {
	return []string{"feeds_translations_helper.tmpl"}
}

// Language is a language the site is available in.
type Language struct {
	Code string
	Name string
}

// Multilingual reports whether there is anything to link to.
func (f FeedTranslations) Multilingual() bool {
	return len(f.Languages) > 1
}

// Others returns every language but the page's own, sorted by code.
func (f FeedTranslations) Others() []Language {
	var others []Language
	for _, code := range sortedKeys(f.Languages) {
		if code == f.Lang {
			continue
		}
		others = append(others, Language{Code: code, Name: f.Languages[code]})
	}
	return others
}

// Math provides the templates that load KaTeX or MathJax for posts that
// contain math.
type Math struct {
	UseKatex        bool
	KatexAutoRender template.JS
	MathJaxConfig   template.JS
}

const (
	katexVersion   = "0.16.9"
	defaultKatexAR = `{delimiters: [{left: "$$", right: "$$", display: true}, {left: "\\[", right: "\\]", display: true}, {left: "\\(", right: "\\)", display: false}]}`
)

func (Math) Templates(_ context.Context) []string {
	return []string{"math_helper.tmpl"}
}

// AnyPostHasMath reports whether math support needs to be loaded for posts.
func (Math) AnyPostHasMath(posts []Post) bool {
	for _, post := range posts {
		if Truthy(post.Meta("has_math")) {
			return true
		}
	}
	return false
}

func (Math) KatexCSS() string {
	return "https://cdn.jsdelivr.net/npm/katex@" + katexVersion + "/dist/katex.min.css"
}

func (Math) KatexJS() string {
	return "https://cdn.jsdelivr.net/npm/katex@" + katexVersion + "/dist/katex.min.js"
}

func (Math) KatexAutoRenderJS() string {
	return "https://cdn.jsdelivr.net/npm/katex@" + katexVersion + "/dist/contrib/auto-render.min.js"
}

func (Math) MathJaxJS() string {
	return "https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-mml-chtml.js"
}

// AutoRenderOptions is the options object for renderMathInElement.
func (m Math) AutoRenderOptions() template.JS {
	if m.KatexAutoRender != "" {
		return m.KatexAutoRender
	}
	return defaultKatexAR
}

package postindex_test

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/PuerkitoBio/goquery"

	"impractical.co/postindex"
)

type testPost struct {
	title     string
	author    string
	permalink string
	date      time.Time
	meta      map[string]string
	teaser    template.HTML
	body      template.HTML

	// dateLabel, when set, is returned for every format but webiso.
	dateLabel string
}

func (p testPost) Permalink() string { return p.permalink }
func (p testPost) Title() string     { return p.title }
func (p testPost) Author() string    { return p.author }
func (p testPost) BasePath() string  { return strings.TrimPrefix(p.permalink, "/") }
func (p testPost) Meta(key string) string {
	return p.meta[key]
}

func (p testPost) FormattedDate(format string) string {
	if format == "webiso" {
		return p.date.Format(time.RFC3339)
	}
	if p.dateLabel != "" {
		return p.dateLabel
	}
	return p.date.Format("2006-01-02")
}

func (p testPost) Text(teaserOnly bool) template.HTML {
	if teaserOnly && p.teaser != "" {
		return p.teaser
	}
	return p.body
}

func testPosts() []postindex.Post {
	return []postindex.Post{
		testPost{
			title:     "Second post",
			author:    "Ana López",
			permalink: "/posts/second/",
			date:      time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
			teaser:    `<p>Second teaser</p>`,
			body:      `<p>Second body</p>`,
		},
		testPost{
			title:     "First post",
			author:    "Bo",
			permalink: "/posts/first/",
			date:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			meta:      map[string]string{"nocomments": "true"},
			body:      `<p>First body</p>`,
		},
	}
}

func testConfig() postindex.SiteConfig {
	return postindex.SiteConfig{
		Title:         "Test Blog",
		Lang:          "en",
		IndexFile:     "index.html",
		PostsPerPage:  2,
		ReadMoreLabel: "Read more",
		DateFormat:    "%Y-%m-%d",
		Timezone:      "UTC",
	}
}

func render(t *testing.T, blog *postindex.Blog, page postindex.IndexPage) *goquery.Document {
	t.Helper()
	var out bytes.Buffer
	if err := postindex.Execute(context.Background(), &out, blog, page); err != nil {
		t.Fatalf("error rendering page: %s", err)
	}
	doc, err := goquery.NewDocumentFromReader(&out)
	if err != nil {
		t.Fatalf("error parsing rendered page: %s", err)
	}
	return doc
}

func assertAttr(t *testing.T, doc *goquery.Document, selector, attr, want string) {
	t.Helper()
	sel := doc.Find(selector)
	if sel.Length() != 1 {
		t.Errorf("expected one match for %q, got %d", selector, sel.Length())
		return
	}
	if got, _ := sel.Attr(attr); got != want {
		t.Errorf("expected %s of %q to be %q, got %q", attr, selector, want, got)
	}
}

func assertText(t *testing.T, doc *goquery.Document, selector, want string) {
	t.Helper()
	if got := strings.TrimSpace(doc.Find(selector).Text()); got != want {
		t.Errorf("expected text of %q to be %q, got %q", selector, want, got)
	}
}

func assertCount(t *testing.T, doc *goquery.Document, selector string, want int) {
	t.Helper()
	if got := doc.Find(selector).Length(); got != want {
		t.Errorf("expected %d matches for %q, got %d", want, selector, got)
	}
}

func TestIndexPageMiddlePage(t *testing.T) {
	t.Parallel()

	blog := postindex.NewBlog(testConfig(), nil)
	page := postindex.NewIndexPage(blog, "")
	page.Posts = testPosts()
	page.Permalink = "/index-1.html"
	page.PageLinks = []string{"/", "/index-1.html", "/index-2.html"}
	page.CurrentPage = 1
	page.PrevLink = "/"
	page.NextLink = "/index-2.html"

	doc := render(t, blog, page)

	assertText(t, doc, "title", "Test Blog")
	assertAttr(t, doc, "html", "lang", "en")
	assertAttr(t, doc, `link[rel="alternate"][type="application/rss+xml"]`, "href", "/rss.xml")
	assertAttr(t, doc, "#brand a", "href", "/")
	assertCount(t, doc, `link[rel="prefetch"]`, 0)
	assertCount(t, doc, ".translationslist", 0)

	assertCount(t, doc, ".postindex article.h-entry", 2)
	first := doc.Find("article.h-entry").First()
	if got := first.Find("h1.p-name a.u-url").Text(); got != "Second post" {
		t.Errorf("expected first post to be %q, got %q", "Second post", got)
	}
	if got := strings.TrimSpace(first.Find(".byline-name").Text()); got != "Ana López" {
		t.Errorf("expected byline %q, got %q", "Ana López", got)
	}
	assertCount(t, doc, ".byline-name a", 0)
	if got, _ := first.Find("time.dt-published").Attr("datetime"); got != "2024-03-02T10:00:00Z" {
		t.Errorf("expected datetime %q, got %q", "2024-03-02T10:00:00Z", got)
	}
	if got := first.Find("div.e-content").Text(); !strings.Contains(got, "Second body") {
		t.Errorf("expected full text in e-content, got %q", got)
	}
	assertCount(t, doc, ".p-summary", 0)
	assertCount(t, doc, ".commentline", 0)

	assertText(t, doc, ".page-navigation span.current-page", "2")
	assertCount(t, doc, ".page-navigation a", 2)
	assertAttr(t, doc, "nav.postindexpager li.previous a", "href", "/")
	assertAttr(t, doc, "nav.postindexpager li.previous a", "rel", "prev")
	assertText(t, doc, "nav.postindexpager li.previous a", "Newer posts")
	assertAttr(t, doc, "nav.postindexpager li.next a", "href", "/index-2.html")
	assertText(t, doc, "nav.postindexpager li.next a", "Older posts")
}

func TestIndexPageFront(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.AuthorPages = true
	cfg.IndexTeasers = true
	blog := postindex.NewBlog(cfg, nil)
	page := postindex.NewIndexPage(blog, "en")
	page.Posts = testPosts()
	page.Permalink = "/"
	page.PageKind = append(page.PageKind, postindex.PageKindMainIndex)
	page.FrontIndexHeader = `<p class="front-header">Welcome</p>`

	doc := render(t, blog, page)

	assertAttr(t, doc, `link[rel="prefetch"]`, "href", "/posts/second/")
	assertText(t, doc, "p.front-header", "Welcome")
	assertCount(t, doc, ".page-navigation", 0)
	assertCount(t, doc, "nav.postindexpager", 0)
	assertAttr(t, doc, "article:first-of-type .byline-name a", "href", "/authors/ana-lopez/")
	assertCount(t, doc, ".p-summary", 2)
	if got := doc.Find(".p-summary").First().Text(); !strings.Contains(got, "Second teaser") {
		t.Errorf("expected teaser in p-summary, got %q", got)
	}
}

func TestIndexPageFrontHeaderOnlyOnMainIndex(t *testing.T) {
	t.Parallel()

	blog := postindex.NewBlog(testConfig(), nil)
	page := postindex.NewIndexPage(blog, "en")
	page.Permalink = "/authors/bo/"
	page.PageKind = append(page.PageKind, postindex.PageKindAuthor)
	page.PageTitle = "Posts by Bo"
	page.FrontIndexHeader = `<p class="front-header">Welcome</p>`

	doc := render(t, blog, page)

	assertText(t, doc, "title", "Posts by Bo | Test Blog")
	assertCount(t, doc, "p.front-header", 0)
	assertCount(t, doc, "article", 0)
	assertCount(t, doc, `link[rel="prefetch"]`, 0)
}

func TestIndexPageComments(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		comments   postindex.CommentConfig
		linkSel    string
		scriptSel  string
		scriptAttr string
		scriptWant string
	}{
		"disqus": {
			comments:   postindex.CommentConfig{System: postindex.CommentSystemDisqus, SystemID: "example"},
			linkSel:    `a[href="/posts/second/#disqus_thread"][data-disqus-identifier="posts/second/"]`,
			scriptSel:  "script#dsq-count-scr",
			scriptAttr: "src",
			scriptWant: "https://example.disqus.com/count.js",
		},
		"isso": {
			comments:   postindex.CommentConfig{System: postindex.CommentSystemIsso, SystemID: "https://comments.example.com"},
			linkSel:    `a[href="/posts/second/#isso-thread"]`,
			scriptSel:  "script[data-isso]",
			scriptAttr: "src",
			scriptWant: "https://comments.example.com/js/count.min.js",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			cfg.Comments = test.comments
			blog := postindex.NewBlog(cfg, nil)
			page := postindex.NewIndexPage(blog, "en")
			page.Posts = testPosts()
			page.Permalink = "/"

			doc := render(t, blog, page)

			// the first post has comments disabled
			assertCount(t, doc, ".commentline", 1)
			assertCount(t, doc, test.linkSel, 1)
			assertText(t, doc, ".commentline a", "Comments")
			assertAttr(t, doc, test.scriptSel, test.scriptAttr, test.scriptWant)
		})
	}
}

func TestIndexPageTranslations(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Translations = map[string]string{"en": "English", "de": "Deutsch"}
	blog := postindex.NewBlog(cfg, nil)
	page := postindex.NewIndexPage(blog, "de")
	page.Posts = testPosts()
	page.Permalink = "/de/index-1.html"
	page.PageLinks = []string{"/de/", "/de/index-1.html"}
	page.CurrentPage = 1
	page.PrevLink = "/de/"

	doc := render(t, blog, page)

	assertAttr(t, doc, "html", "lang", "de")
	assertAttr(t, doc, `link[rel="alternate"][type="application/rss+xml"]`, "href", "/de/rss.xml")
	assertAttr(t, doc, "#brand a", "href", "/de/")
	assertText(t, doc, ".translationslist h3.translationslist-intro", "Auch verfügbar in:")
	assertAttr(t, doc, ".translationslist a", "href", "/")
	assertAttr(t, doc, ".translationslist a", "hreflang", "en")
	assertText(t, doc, ".translationslist a", "English")
	assertText(t, doc, "nav.postindexpager li.previous a", "Neuere Einträge")
	assertText(t, doc, "a.skip-link", "Springe zum Hauptinhalt")
}

func TestIndexPageMath(t *testing.T) {
	t.Parallel()

	mathPost := testPost{
		title:     "Euler",
		author:    "Ana",
		permalink: "/posts/euler/",
		meta:      map[string]string{"has_math": "true"},
		body:      `<p>\(e^{i\pi} + 1 = 0\)</p>`,
	}

	t.Run("katex", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Math.UseKatex = true
		blog := postindex.NewBlog(cfg, nil)
		page := postindex.NewIndexPage(blog, "en")
		page.Posts = append(testPosts(), mathPost)

		doc := render(t, blog, page)

		math := postindex.Math{}
		assertCount(t, doc, `head link[href="`+math.KatexCSS()+`"]`, 1)
		assertCount(t, doc, `script[src="`+math.KatexJS()+`"]`, 1)
		assertCount(t, doc, `script[src="`+math.KatexAutoRenderJS()+`"]`, 1)
		assertCount(t, doc, "script#MathJax-script", 0)
	})

	t.Run("mathjax", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Math.MathJaxConfig = `{tex: {inlineMath: [["$", "$"]]}}`
		blog := postindex.NewBlog(cfg, nil)
		page := postindex.NewIndexPage(blog, "en")
		page.Posts = []postindex.Post{mathPost}

		doc := render(t, blog, page)

		assertAttr(t, doc, "script#MathJax-script", "src", postindex.Math{}.MathJaxJS())
		if got := doc.Find("script:not([src])").Text(); !strings.Contains(got, "window.MathJax = {tex:") {
			t.Errorf("expected MathJax configuration, got %q", got)
		}
	})

	t.Run("no math", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Math.UseKatex = true
		blog := postindex.NewBlog(cfg, nil)
		page := postindex.NewIndexPage(blog, "en")
		page.Posts = testPosts()

		doc := render(t, blog, page)

		assertCount(t, doc, `link[href*="katex"]`, 0)
		assertCount(t, doc, `script[src*="katex"]`, 0)
	})
}

func TestIndexPageThemeResources(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Theme.Stylesheets = []string{"/assets/base.css", "/assets/theme.css"}
	cfg.Theme.Scripts = []string{"/assets/site.js"}
	blog := postindex.NewBlog(cfg, nil)
	page := postindex.NewIndexPage(blog, "en")

	doc := render(t, blog, page)

	links := doc.Find(`head link[rel="stylesheet"]`).Map(func(_ int, s *goquery.Selection) string {
		return s.AttrOr("href", "")
	})
	if got := strings.Join(links, ","); got != "/assets/base.css,/assets/theme.css" {
		t.Errorf("unexpected stylesheets %q", got)
	}
	assertCount(t, doc, `head script[src="/assets/site.js"]`, 0)
	assertCount(t, doc, `body > script[src="/assets/site.js"]`, 1)
}

func TestIndexPageThemeHeadResources(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Theme.Stylesheets = []string{"/assets/base.css"}
	cfg.Theme.PrintStylesheets = []string{"/assets/print.css"}
	cfg.Theme.Scripts = []string{"/assets/site.js"}
	cfg.Theme.HeadScripts = []postindex.ThemeScript{
		{Src: "/assets/analytics.js", Async: true},
		{Src: "/assets/theme.js", Defer: true},
	}
	blog := postindex.NewBlog(cfg, nil)
	page := postindex.NewIndexPage(blog, "en")

	doc := render(t, blog, page)

	assertAttr(t, doc, `head link[href="/assets/print.css"]`, "media", "print")
	assertCount(t, doc, `head link[href="/assets/base.css"][media]`, 0)
	scripts := doc.Find("head script[src]").Map(func(_ int, s *goquery.Selection) string {
		return s.AttrOr("src", "")
	})
	if got := strings.Join(scripts, ","); got != "/assets/analytics.js,/assets/theme.js" {
		t.Errorf("unexpected head scripts %q", got)
	}
	assertCount(t, doc, `head script[src="/assets/analytics.js"][async]`, 1)
	assertCount(t, doc, `head script[src="/assets/theme.js"][defer]`, 1)
	assertCount(t, doc, `body > script[src="/assets/site.js"]`, 1)
}

func TestIndexPageAuthorlessPost(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.AuthorPages = true
	blog := postindex.NewBlog(cfg, nil)
	page := postindex.NewIndexPage(blog, "en")
	page.Posts = []postindex.Post{
		testPost{
			title:     "Anonymous",
			permalink: "/posts/anonymous/",
			date:      time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC),
		},
		testPosts()[0],
	}

	doc := render(t, blog, page)

	assertCount(t, doc, "article", 2)
	assertCount(t, doc, "article:first-of-type .byline-name a", 0)
	assertAttr(t, doc, "article:last-of-type .byline-name a", "href", "/authors/ana-lopez/")
}

func TestIndexPageEscapesPostFields(t *testing.T) {
	t.Parallel()

	const hostile = `<b>&"Quoted"</b>`
	cfg := testConfig()
	cfg.AuthorPages = true
	blog := postindex.NewBlog(cfg, nil)
	page := postindex.NewIndexPage(blog, "en")
	page.Posts = []postindex.Post{testPost{
		title:     hostile,
		author:    hostile,
		permalink: "/posts/hostile/",
		date:      time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC),
		dateLabel: hostile,
	}}

	var out bytes.Buffer
	if err := postindex.Execute(context.Background(), &out, blog, page); err != nil {
		t.Fatalf("error rendering page: %s", err)
	}
	if strings.Contains(out.String(), hostile) {
		t.Error("expected post fields to be escaped")
	}
	doc, err := goquery.NewDocumentFromReader(&out)
	if err != nil {
		t.Fatalf("error parsing rendered page: %s", err)
	}

	assertCount(t, doc, "article b", 0)
	assertText(t, doc, "a.u-url", hostile)
	assertText(t, doc, ".byline-name a", hostile)
	assertAttr(t, doc, ".byline-name a", "href", "/authors/b-quoted-b/")
	assertAttr(t, doc, "time.dt-published", "title", hostile)
	assertText(t, doc, "time.dt-published", hostile)
}

func TestIndexPageZeroValue(t *testing.T) {
	t.Parallel()

	blog := postindex.NewBlog(testConfig(), nil)

	doc := render(t, blog, postindex.IndexPage{})

	assertCount(t, doc, "div.postindex", 1)
	assertCount(t, doc, "div.postindex > *", 0)
	assertCount(t, doc, ".page-navigation", 0)
	assertCount(t, doc, "nav.postindexpager", 0)
	assertCount(t, doc, ".translationslist", 0)
	assertCount(t, doc, `link[rel="prefetch"]`, 0)
	assertText(t, doc, "title", "Test Blog")
}

func TestIndexPagePrefetchWithIndexFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ShowIndexFile = true
	blog := postindex.NewBlog(cfg, nil)

	tests := map[string]struct {
		permalink string
		want      int
	}{
		"index file":  {permalink: "/index.html", want: 1},
		"other page":  {permalink: "/index-1.html", want: 0},
		"translation": {permalink: "/de/index.html", want: 0},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			page := postindex.NewIndexPage(blog, "en")
			page.Posts = testPosts()
			page.Permalink = test.permalink

			doc := render(t, blog, page)

			assertCount(t, doc, `link[rel="prefetch"][href="/posts/second/"]`, test.want)
		})
	}
}

func TestIndexPageThemeOverrides(t *testing.T) {
	t.Parallel()

	theme := fstest.MapFS{
		"overrides.tmpl": {Data: []byte(`{{ define "content_header" }}<p class="custom-header">{{ .Site.Title }}</p>{{ end }}` +
			`{{ define "extra_head" }}{{ template "base_extra_head" . }}<meta name="theme" content="custom">{{ end }}`)},
	}
	cfg := testConfig()
	cfg.Translations = map[string]string{"en": "English", "de": "Deutsch"}
	cfg.Theme.Overrides = []string{"overrides.tmpl"}
	blog := postindex.NewBlog(cfg, theme)
	page := postindex.NewIndexPage(blog, "en")
	page.Posts = testPosts()
	page.Permalink = "/"

	doc := render(t, blog, page)

	assertText(t, doc, "p.custom-header", "Test Blog")
	assertCount(t, doc, ".translationslist", 0)
	assertAttr(t, doc, `meta[name="theme"]`, "content", "custom")
	// the override calls the default, so the feed link stays
	assertCount(t, doc, `link[rel="alternate"][type="application/rss+xml"]`, 1)
	// the replaced extra_head no longer includes the prefetch hint
	assertCount(t, doc, `link[rel="prefetch"]`, 0)
	assertCount(t, doc, "article.h-entry", 2)
}

func TestIndexPageReversedNavigation(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.PrevNextLinksReversed = true
	blog := postindex.NewBlog(cfg, nil)
	page := postindex.NewIndexPage(blog, "en")
	page.Posts = testPosts()
	page.Permalink = "/"
	page.PageLinks = []string{"/", "/index-1.html", "/index-2.html"}
	page.PrevLink = "/index-1.html"

	doc := render(t, blog, page)

	assertText(t, doc, ".page-navigation span.current-page", "3")
	labels := doc.Find(".page-navigation a").Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	})
	if got := strings.Join(labels, ","); got != "2,1" {
		t.Errorf("expected labels 2,1, got %q", got)
	}
	assertAttr(t, doc, "li.previous a", "href", "/index-1.html")
	assertCount(t, doc, "li.next", 0)
}

func TestRenderServerErrorPage(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Theme.Overrides = []string{"missing.tmpl"}
	blog := postindex.NewBlog(cfg, nil)
	page := postindex.NewIndexPage(blog, "en")

	var out bytes.Buffer
	err := postindex.Execute(context.Background(), &out, blog, page)
	if !errors.Is(err, postindex.ErrTemplatePatternMatchesNoFiles) {
		t.Fatalf("expected ErrTemplatePatternMatchesNoFiles, got %v", err)
	}

	out.Reset()
	postindex.Render(context.Background(), &out, blog, page)
	doc, err := goquery.NewDocumentFromReader(&out)
	if err != nil {
		t.Fatalf("error parsing error page: %s", err)
	}
	assertText(t, doc, "h1", "Server error")
	assertText(t, doc, "title", "Server error | Test Blog")
}

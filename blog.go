package postindex

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

// DefaultTemplates returns the built-in templates: base.tmpl, index.tmpl,
// error.tmpl and the helper templates they use.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		// the directory is embedded, so this can't happen
		panic(err)
	}
	return sub
}

var (
	_ Site             = &Blog{}
	_ FuncMapExtender  = &Blog{}
	_ ServerErrorPager = &Blog{}
)

// Blog is the Site implementation for a configured blog. Its configuration is
// available to templates through .Site.
type Blog struct {
	*CachedSite
	SiteConfig
}

// NewBlog returns a Blog rendering with the built-in templates. When theme is
// not nil, its files take precedence over the built-in ones with the same
// name.
func NewBlog(cfg SiteConfig, theme fs.FS) *Blog {
	var dir fs.FS = DefaultTemplates()
	if theme != nil {
		dir = overlayFS{theme, dir}
	}
	return &Blog{
		CachedSite: NewCachedSite(dir),
		SiteConfig: cfg,
	}
}

// HasComments reports whether a comment system is configured.
func (b *Blog) HasComments() bool {
	return b.Comments.System != CommentSystemNone
}

// FuncMap makes link and messages available to every template.
//
//	{{ link "author" .Author }}
//	{{ link "index" "" "de" }}
//	{{ messages "Older posts" .Page.Lang }}
func (b *Blog) FuncMap(_ context.Context) template.FuncMap {
	return template.FuncMap{
		"link": func(kind, name string, lang ...string) (string, error) {
			return b.Link(kind, name, firstOr(lang, ""))
		},
		"messages": func(key string, lang ...string) string {
			return b.Message(key, firstOr(lang, ""))
		},
	}
}

// ServerErrorPage is rendered by Render when a page fails to render.
func (b *Blog) ServerErrorPage(_ context.Context) Renderable {
	return ErrorPage{}
}

// ErrorPage is a standalone page telling the reader something went wrong.
type ErrorPage struct{}

func (ErrorPage) Templates(_ context.Context) []string {
	return []string{"error.tmpl"}
}

func (ErrorPage) Key(_ context.Context) string {
	return "error.tmpl"
}

func (ErrorPage) ExecutedTemplate(_ context.Context) string {
	return "error.tmpl"
}

func firstOr[T any](values []T, fallback T) T {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}

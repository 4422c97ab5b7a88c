// Package content loads blog posts from Markdown or HTML files with YAML
// front matter, or from an RSS/Atom feed, and exposes them as
// postindex.Post values.
package content

import (
	"html"
	"html/template"
	"slices"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"impractical.co/postindex"
)

// TeaserMarker separates a post's teaser from the rest of its body.
const TeaserMarker = "<!-- TEASER_END -->"

var _ postindex.Post = (*Entry)(nil)

// Entry is a single loaded post.
type Entry struct {
	title     string
	slug      string
	author    string
	lang      string
	date      time.Time
	permalink string
	tags      []string
	meta      map[string]string

	teaser   template.HTML
	body     template.HTML
	teaserOK bool

	loc      *time.Location
	readMore string
}

// Permalink returns the URL path of the post.
func (e *Entry) Permalink() string { return e.permalink }

// Title returns the post's title.
func (e *Entry) Title() string { return e.title }

// Author returns the post's author.
func (e *Entry) Author() string { return e.author }

// Slug returns the post's URL slug.
func (e *Entry) Slug() string { return e.slug }

// Lang returns the language the post is written in.
func (e *Entry) Lang() string { return e.lang }

// Date returns the post's publication date.
func (e *Entry) Date() time.Time { return e.date }

// Tags returns the post's tags.
func (e *Entry) Tags() []string { return slices.Clone(e.tags) }

// BasePath returns the permalink without its leading slash.
func (e *Entry) BasePath() string {
	return strings.TrimPrefix(e.permalink, "/")
}

// FormattedDate formats the post's date in its time zone. "webiso" is
// RFC 3339; anything else is a strftime layout.
func (e *Entry) FormattedDate(format string) string {
	date := e.date
	if e.loc != nil {
		date = date.In(e.loc)
	}
	if format == "webiso" {
		return date.Format(time.RFC3339)
	}
	return strftime.Format(format, date)
}

// Meta returns the metadata value for key. The well-known keys title, slug,
// author, lang, type, tags, nocomments and has_math are derived from the
// post itself; any other key comes from the front matter.
func (e *Entry) Meta(key string) string {
	switch key {
	case "title":
		return e.title
	case "slug":
		return e.slug
	case "author":
		return e.author
	case "lang":
		return e.lang
	case "tags":
		return strings.Join(e.tags, ", ")
	case "type":
		if t := e.meta["type"]; t != "" {
			return t
		}
		return "text"
	case "has_math":
		if postindex.Truthy(e.meta["has_math"]) || slices.Contains(e.tags, "mathjax") {
			return "true"
		}
		return ""
	}
	return e.meta[key]
}

// Text returns the post's body. With teaserOnly set, a post that has a
// teaser returns the teaser followed by a link to the full post.
func (e *Entry) Text(teaserOnly bool) template.HTML {
	if !teaserOnly || !e.teaserOK {
		return e.body
	}
	more := `<p class="more"><a href="` + html.EscapeString(e.permalink) + `">` + html.EscapeString(e.readMore) + `</a></p>`
	return e.teaser + template.HTML(more) // #nosec G203
}

// setBody stores rendered HTML, splitting off the teaser at TeaserMarker.
func (e *Entry) setBody(rendered string) {
	teaser, _, found := strings.Cut(rendered, TeaserMarker)
	full := strings.Replace(rendered, TeaserMarker, "", 1)
	e.teaserOK = found
	// #nosec G203
	e.teaser = template.HTML(strings.TrimSpace(teaser))
	// #nosec G203
	e.body = template.HTML(strings.TrimSpace(full))
}

// SortNewestFirst orders entries by date, newest first. Entries with the same
// date keep their relative order.
func SortNewestFirst(entries []*Entry) {
	slices.SortStableFunc(entries, func(a, b *Entry) int {
		return b.date.Compare(a.date)
	})
}

// Posts converts entries for use in an index page.
func Posts(entries []*Entry) []postindex.Post {
	posts := make([]postindex.Post, len(entries))
	for i, e := range entries {
		posts[i] = e
	}
	return posts
}

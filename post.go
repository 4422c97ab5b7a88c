package postindex

import (
	"html/template"
	"strings"
)

// Post is the narrow view of a blog post that index pages need.
type Post interface {
	// Permalink is the URL path of the post, like /posts/hello-world/.
	Permalink() string

	// Title is the plain text title of the post.
	Title() string

	// Author is the display name of the post's author.
	Author() string

	// FormattedDate returns the post's date in the passed format. The
	// special format "webiso" is RFC 3339, suitable for datetime
	// attributes.
	FormattedDate(format string) string

	// Meta returns the metadata value stored under key, or an empty
	// string.
	Meta(key string) string

	// Text returns the post's rendered body. When teaserOnly is set and
	// the post has a teaser, only the teaser and a link to the full post
	// are returned.
	Text(teaserOnly bool) template.HTML

	// BasePath identifies the post to comment systems.
	BasePath() string
}

// Truthy reports whether a metadata value should be read as true. Empty
// strings and the usual spellings of false are false; anything else is true.
func Truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

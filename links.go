package postindex

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrUnknownLinkKind is returned by Link for kinds it can't resolve.
var ErrUnknownLinkKind = errors.New("unknown link kind")

// Link kinds understood by Blog.Link.
const (
	LinkRoot   = "root"
	LinkIndex  = "index"
	LinkAuthor = "author"
	LinkRSS    = "rss"
)

// Link returns the URL path of the named resource in lang. An empty lang
// means the default language, which isn't prefixed; other languages live
// under /{lang}/.
func (b *Blog) Link(kind, name, lang string) (string, error) {
	prefix := b.langPrefix(lang)
	switch kind {
	case LinkRoot:
		return prefix, nil
	case LinkIndex:
		if b.ShowIndexFile {
			return prefix + b.IndexFile, nil
		}
		return prefix, nil
	case LinkAuthor:
		slug := Slugify(name)
		if slug == "" {
			return "", fmt.Errorf("%w: %s link needs a name, got %q", ErrUnknownLinkKind, kind, name)
		}
		return prefix + "authors/" + slug + "/", nil
	case LinkRSS:
		return prefix + "rss.xml", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLinkKind, kind)
}

func (b *Blog) langPrefix(lang string) string {
	if lang == "" || lang == b.Lang {
		return "/"
	}
	return "/" + lang + "/"
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify turns s into a lower case, dash separated string that's safe to
// use as a URL path segment. Accents are dropped.
func Slugify(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

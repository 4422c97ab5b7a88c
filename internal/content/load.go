package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"

	"impractical.co/postindex"
)

var (
	// ErrMissingTitle is returned for a post without a title.
	ErrMissingTitle = errors.New("post has no title")

	// ErrBadDate is returned for a post whose date can't be parsed.
	ErrBadDate = errors.New("unparseable post date")
)

// Options controls how posts are turned into entries.
type Options struct {
	// Lang is the language of posts that don't declare one.
	Lang string

	// DefaultLang is the site's default language; posts in other
	// languages get a /{lang} prefix on their permalink.
	DefaultLang string

	// Author is used for posts that don't name one.
	Author string

	// Location is the time zone dates are parsed and displayed in.
	Location *time.Location

	// ReadMore is the label of the link after a teaser.
	ReadMore string
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.ReadMore == "" {
		o.ReadMore = "Read more…"
	}
	if o.DefaultLang == "" {
		o.DefaultLang = o.Lang
	}
	return o
}

// frontMatter is the YAML header of a post file.
type frontMatter struct {
	Title      string         `yaml:"title"`
	Slug       string         `yaml:"slug"`
	Date       string         `yaml:"date"`
	Author     string         `yaml:"author"`
	Lang       string         `yaml:"lang"`
	Type       string         `yaml:"type"`
	Tags       []string       `yaml:"tags"`
	NoComments bool           `yaml:"nocomments"`
	HasMath    bool           `yaml:"has_math"`
	Extra      map[string]any `yaml:",inline"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, value)
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// LoadDir reads every .md, .markdown and .html file under dir in fsys and
// returns the posts newest first.
func LoadDir(ctx context.Context, fsys fs.FS, dir string, opts Options) ([]*Entry, error) {
	opts = opts.withDefaults()
	var entries []*Entry
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(path.Ext(p)) {
		case ".md", ".markdown", ".html":
		default:
			return nil
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("error reading %q: %w", p, err)
		}
		entry, err := Parse(p, raw, opts)
		if err != nil {
			return fmt.Errorf("error loading %q: %w", p, err)
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	postindex.Logger(ctx).DebugContext(ctx, "loaded posts", "dir", dir, "count", len(entries))
	SortNewestFirst(entries)
	return entries, nil
}

// Parse turns a single post file into an Entry. Files ending in .html are
// used as is; anything else is rendered as Markdown.
func Parse(name string, raw []byte, opts Options) (*Entry, error) {
	opts = opts.withDefaults()
	header, body := splitFrontMatter(raw)
	var fm frontMatter
	if len(header) > 0 {
		if err := yaml.Unmarshal(header, &fm); err != nil {
			return nil, fmt.Errorf("error parsing front matter: %w", err)
		}
	}
	if strings.TrimSpace(fm.Title) == "" {
		return nil, ErrMissingTitle
	}
	date, err := parseDate(fm.Date, opts.Location)
	if err != nil {
		return nil, err
	}

	base := path.Base(name)
	slug := fm.Slug
	if slug == "" {
		slug = postindex.Slugify(strings.TrimSuffix(base, path.Ext(base)))
	}

	rendered := string(body)
	if strings.ToLower(path.Ext(name)) != ".html" {
		var buf bytes.Buffer
		if err := markdown.Convert(body, &buf); err != nil {
			return nil, fmt.Errorf("error rendering markdown: %w", err)
		}
		rendered = buf.String()
	}

	meta := map[string]string{}
	for k, v := range fm.Extra {
		if value, ok := metaValue(v); ok {
			meta[k] = value
		}
	}
	meta["type"] = fm.Type
	if fm.NoComments {
		meta["nocomments"] = "true"
	}
	if fm.HasMath {
		meta["has_math"] = "true"
	}

	entry := newEntry(opts, fm.Title, slug, fm.Author, fm.Lang, date, fm.Tags, meta)
	entry.setBody(rendered)
	return entry, nil
}

// metaValue flattens a front matter value into its Meta string. Lists are
// joined the way tags are; values holding a mapping have no string form.
func metaValue(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case time.Time:
		return v.Format(time.RFC3339), true
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			part, ok := metaValue(item)
			if !ok {
				return "", false
			}
			parts = append(parts, part)
		}
		return strings.Join(parts, ", "), true
	case map[string]any:
		return "", false
	}
	return fmt.Sprint(v), true
}

func newEntry(opts Options, title, slug, author, lang string, date time.Time, tags []string, meta map[string]string) *Entry {
	if author == "" {
		author = opts.Author
	}
	if lang == "" {
		lang = opts.Lang
	}
	prefix := "/"
	if lang != "" && lang != opts.DefaultLang {
		prefix = "/" + lang + "/"
	}
	return &Entry{
		title:     strings.TrimSpace(title),
		slug:      slug,
		author:    author,
		lang:      lang,
		date:      date,
		permalink: prefix + "posts/" + slug + "/",
		tags:      tags,
		meta:      meta,
		loc:       opts.Location,
		readMore:  opts.ReadMore,
	}
}

// splitFrontMatter separates a leading "---" delimited YAML block from the
// rest of the file. Files without one have an empty header.
func splitFrontMatter(raw []byte) (header, body []byte) {
	const delim = "---"
	text := bytes.TrimPrefix(raw, []byte("\ufeff"))
	if !bytes.HasPrefix(text, []byte(delim+"\n")) && !bytes.HasPrefix(text, []byte(delim+"\r\n")) {
		return nil, raw
	}
	rest := text[bytes.IndexByte(text, '\n')+1:]
	for offset := 0; offset < len(rest); {
		end := bytes.IndexByte(rest[offset:], '\n')
		line := rest[offset:]
		next := len(rest)
		if end >= 0 {
			line = rest[offset : offset+end]
			next = offset + end + 1
		}
		if string(bytes.TrimRight(line, "\r")) == delim {
			return rest[:offset], rest[next:]
		}
		offset = next
	}
	return nil, raw
}

// Package build plans every index page of a blog and writes them to disk.
package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"impractical.co/postindex"
	"impractical.co/postindex/internal/metrics"
	"impractical.co/postindex/internal/pagination"
)

var tracer = otel.Tracer("impractical.co/postindex/internal/build")

// Kinds of planned pages, used as metric labels.
const (
	KindMain   = "main"
	KindAuthor = "author"
)

// Page is a planned index page.
type Page struct {
	// Path is where the page is written, relative to the output
	// directory and slash separated.
	Path string

	Kind string
	Page postindex.IndexPage
}

// Builder renders the index pages of a Blog.
type Builder struct {
	Blog    *postindex.Blog
	Metrics *metrics.Render

	// Concurrency caps how many pages render at once. Values below one
	// mean one.
	Concurrency int
}

// New returns a Builder for blog using the blog's configured concurrency.
func New(blog *postindex.Blog, m *metrics.Render) *Builder {
	return &Builder{
		Blog:        blog,
		Metrics:     m,
		Concurrency: blog.Concurrency,
	}
}

// Plan returns every index page for posts, which must be sorted newest
// first: the main index of each language and, when author pages are
// enabled, one index per author and language. Posts without a language
// belong to the default language.
func (b *Builder) Plan(ctx context.Context, posts []postindex.Post) ([]Page, error) {
	var pages []Page
	for _, lang := range b.Blog.Languages() {
		langPosts := postsIn(posts, lang, b.Blog.Lang)
		b.Metrics.SetPostsIndexed(lang, len(langPosts))

		root, err := b.Blog.Link(postindex.LinkRoot, "", lang)
		if err != nil {
			return nil, err
		}
		pages = append(pages, b.planIndex(lang, root, KindMain, "", langPosts)...)

		if !b.Blog.AuthorPages {
			continue
		}
		for _, author := range authors(langPosts) {
			dir, err := b.Blog.Link(postindex.LinkAuthor, author.name, lang)
			if err != nil {
				return nil, fmt.Errorf("error planning author index for %q: %w", author.name, err)
			}
			title := fmt.Sprintf(b.Blog.Message("Posts by %s", lang), author.name)
			byAuthor := slices.DeleteFunc(slices.Clone(langPosts), func(p postindex.Post) bool {
				return postindex.Slugify(p.Author()) != author.slug
			})
			pages = append(pages, b.planIndex(lang, dir, KindAuthor, title, byAuthor)...)
		}
	}
	postindex.Logger(ctx).DebugContext(ctx, "planned index pages", "pages", len(pages), "posts", len(posts))
	return pages, nil
}

func (b *Builder) planIndex(lang, dir, kind, title string, posts []postindex.Post) []Page {
	total := pagination.TotalPages(len(posts), b.Blog.PostsPerPage)
	links := pagination.Links(dir, b.Blog.IndexFile, total, b.Blog.ShowIndexFile)
	pages := make([]Page, 0, total)
	for i := range total {
		start, end := pagination.Bounds(i, b.Blog.PostsPerPage, len(posts))
		page := postindex.NewIndexPage(b.Blog, lang)
		page.PageTitle = title
		page.Posts = posts[start:end]
		page.Permalink = links[i]
		page.CurrentPage = i
		if total > 1 {
			page.PageLinks = links
		}
		page.PrevLink, page.NextLink = pagination.Neighbors(links, i, b.Blog.PrevNextLinksReversed)
		switch {
		case kind == KindAuthor:
			page.PageKind = append(page.PageKind, postindex.PageKindAuthor)
		case i == 0:
			page.PageKind = append(page.PageKind, postindex.PageKindMainIndex)
			page.FrontIndexHeader = b.Blog.FrontIndexHeader
		}
		pages = append(pages, Page{
			Path: strings.TrimPrefix(dir, "/") + pagination.FileName(i, b.Blog.IndexFile),
			Kind: kind,
			Page: page,
		})
	}
	return pages
}

// Build plans the index pages for posts and writes them under outDir.
// Pages render concurrently; the first error stops the build.
func (b *Builder) Build(ctx context.Context, posts []postindex.Post, outDir string) (err error) {
	ctx, span := tracer.Start(ctx, "build.Build", trace.WithAttributes(
		attribute.Int("postindex.posts", len(posts)),
		attribute.String("postindex.output_dir", outDir),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	started := time.Now()
	pages, err := b.Plan(ctx, posts)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("postindex.pages", len(pages)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.Concurrency, 1))
	for _, page := range pages {
		g.Go(func() error {
			return b.write(gctx, outDir, page)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	postindex.Logger(ctx).InfoContext(ctx, "built index pages",
		"pages", len(pages),
		"output_dir", outDir,
		"duration", time.Since(started))
	return nil
}

func (b *Builder) write(ctx context.Context, outDir string, page Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	start := time.Now()
	err := postindex.Execute(ctx, &buf, b.Blog, page.Page)
	b.Metrics.ObserveRender(page.Kind, start, err)
	if err != nil {
		return fmt.Errorf("error rendering %s: %w", page.Path, err)
	}
	target := filepath.Join(outDir, filepath.FromSlash(page.Path))
	if err := writeFileAtomic(target, buf.Bytes()); err != nil {
		return fmt.Errorf("error writing %s: %w", page.Path, err)
	}
	postindex.Logger(ctx).DebugContext(ctx, "wrote index page", "path", target, "posts", len(page.Page.Posts))
	return nil
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers never see a partial page.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".postindex-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func postsIn(posts []postindex.Post, lang, defaultLang string) []postindex.Post {
	var out []postindex.Post
	for _, post := range posts {
		postLang := post.Meta("lang")
		if postLang == "" {
			postLang = defaultLang
		}
		if postLang == lang {
			out = append(out, post)
		}
	}
	return out
}

// authorIndex is one author's index: every name that slugifies to slug
// shares it.
type authorIndex struct {
	slug string
	name string
}

// authors returns the author indexes for posts, sorted by slug. Each index
// is titled with the author name of its newest post. Authors without a
// usable slug get no index.
func authors(posts []postindex.Post) []authorIndex {
	var found []authorIndex
	for _, post := range posts {
		slug := postindex.Slugify(post.Author())
		if slug == "" || slices.ContainsFunc(found, func(a authorIndex) bool { return a.slug == slug }) {
			continue
		}
		found = append(found, authorIndex{slug: slug, name: post.Author()})
	}
	slices.SortFunc(found, func(a, b authorIndex) int {
		return strings.Compare(a.slug, b.slug)
	})
	return found
}

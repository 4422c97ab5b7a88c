package content

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/mmcdole/gofeed"

	"impractical.co/postindex"
)

// LoadFeed imports the items of an RSS, Atom or JSON feed as posts, newest
// first. Item links become slugs, so the posts get local permalinks.
func LoadFeed(ctx context.Context, r io.Reader, opts Options) ([]*Entry, error) {
	opts = opts.withDefaults()
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing feed: %w", err)
	}
	feedAuthor := opts.Author
	if len(feed.Authors) > 0 && feed.Authors[0] != nil && feed.Authors[0].Name != "" {
		feedAuthor = feed.Authors[0].Name
	}
	lang := opts.Lang
	if feed.Language != "" {
		lang = strings.ToLower(strings.SplitN(feed.Language, "-", 2)[0])
	}

	entries := make([]*Entry, 0, len(feed.Items))
	for i, item := range feed.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(item.Title) == "" {
			postindex.Logger(ctx).WarnContext(ctx, "skipping feed item without a title", "position", i, "link", item.Link)
			continue
		}
		date := item.PublishedParsed
		if date == nil {
			date = item.UpdatedParsed
		}
		if date == nil {
			postindex.Logger(ctx).WarnContext(ctx, "skipping feed item without a date", "title", item.Title)
			continue
		}
		author := feedAuthor
		if len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "" {
			author = item.Authors[0].Name
		}
		body := item.Content
		if body == "" {
			body = item.Description
		}
		meta := map[string]string{}
		if item.Link != "" {
			meta["link"] = item.Link
		}
		if item.GUID != "" {
			meta["guid"] = item.GUID
		}
		entry := newEntry(opts, item.Title, feedSlug(item), author, lang, date.In(opts.Location), item.Categories, meta)
		entry.setBody(body)
		entries = append(entries, entry)
	}
	SortNewestFirst(entries)
	return entries, nil
}

// feedSlug derives a slug from the last segment of the item's link, falling
// back to its title.
func feedSlug(item *gofeed.Item) string {
	if u, err := url.Parse(item.Link); err == nil && u.Path != "" {
		last := path.Base(strings.TrimSuffix(u.Path, "/"))
		last = strings.TrimSuffix(last, path.Ext(last))
		if slug := postindex.Slugify(last); slug != "" {
			return slug
		}
	}
	return postindex.Slugify(item.Title)
}

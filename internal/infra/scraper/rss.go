// Package scraper retrieves source endpoints and turns them into raw
// entries: RSS/Atom documents through gofeed and HTML category pages
// through goquery.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"feedhub/internal/domain/entity"
	"feedhub/internal/usecase/fetch"
)

const feedAccept = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"

// RSSFetcher implements fetch.EntryFetcher for RSS and Atom feeds.
type RSSFetcher struct {
	client *http.Client
	opts   options
}

// NewRSSFetcher returns an RSSFetcher using client.
func NewRSSFetcher(client *http.Client, opts ...Option) *RSSFetcher {
	return &RSSFetcher{client: client, opts: buildOptions(opts)}
}

// Fetch retrieves feedURL and returns its items in document order.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]entity.Entry, error) {
	return f.opts.guarded(feedURL, func() ([]entity.Entry, error) {
		return f.doFetch(ctx, feedURL)
	})
}

func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]entity.Entry, error) {
	body, err := f.opts.get(ctx, f.client, feedURL, feedAccept)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fetch.ErrParse, err)
	}

	entries := make([]entity.Entry, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		entries = append(entries, entryFromItem(it))
	}
	return entries, nil
}

func entryFromItem(it *gofeed.Item) entity.Entry {
	e := entity.Entry{
		Title:       it.Title,
		Link:        it.Link,
		Description: it.Description,
		Content:     it.Content,
		Published:   it.Published,
		Tags:        it.Categories,
	}
	if e.Link == "" && len(it.Links) > 0 {
		e.Link = it.Links[0]
	}
	if e.Published == "" {
		e.Published = it.Updated
	}

	switch {
	case it.Author != nil && it.Author.Name != "":
		e.Author = it.Author.Name
	case len(it.Authors) > 0 && it.Authors[0] != nil:
		e.Author = it.Authors[0].Name
	}

	if it.Image != nil {
		e.Image = it.Image.URL
	}
	for _, enc := range it.Enclosures {
		if enc != nil && enc.URL != "" && isImageType(enc.Type) {
			e.Enclosures = append(e.Enclosures, enc.URL)
		}
	}

	media := it.Extensions["media"]
	e.MediaContent = mediaURLs(media["content"])
	e.MediaThumbnails = mediaURLs(media["thumbnail"])
	for _, group := range media["group"] {
		e.MediaContent = append(e.MediaContent, mediaURLs(group.Children["content"])...)
		e.MediaThumbnails = append(e.MediaThumbnails, mediaURLs(group.Children["thumbnail"])...)
	}
	return e
}

// mediaURLs returns the url attributes of media:* elements that describe images.
func mediaURLs(elems []ext.Extension) []string {
	var urls []string
	for _, el := range elems {
		u := strings.TrimSpace(el.Attrs["url"])
		if u == "" {
			continue
		}
		if medium := el.Attrs["medium"]; medium != "" && medium != "image" {
			continue
		}
		if !isImageType(el.Attrs["type"]) {
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

func isImageType(mime string) bool {
	return mime == "" || strings.HasPrefix(strings.ToLower(mime), "image/")
}

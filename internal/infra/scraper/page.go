package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"feedhub/internal/domain/entity"
	"feedhub/internal/usecase/fetch"
)

const pageAccept = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5"

// PageScraper implements fetch.EntryFetcher for HTML category pages that
// list stories as <article> blocks. Within each block the first link gives
// the title and URL, the first paragraph the summary, the first image the
// picture and the first <time> the publication date.
type PageScraper struct {
	client *http.Client
	opts   options
}

// NewPageScraper returns a PageScraper using client.
func NewPageScraper(client *http.Client, opts ...Option) *PageScraper {
	return &PageScraper{client: client, opts: buildOptions(opts)}
}

// Fetch retrieves pageURL and returns one entry per <article>.
func (s *PageScraper) Fetch(ctx context.Context, pageURL string) ([]entity.Entry, error) {
	return s.opts.guarded(pageURL, func() ([]entity.Entry, error) {
		return s.doFetch(ctx, pageURL)
	})
}

func (s *PageScraper) doFetch(ctx context.Context, pageURL string) ([]entity.Entry, error) {
	body, err := s.opts.get(ctx, s.client, pageURL, pageAccept)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fetch.ErrParse, err)
	}

	var entries []entity.Entry
	doc.Find("article").Each(func(_ int, art *goquery.Selection) {
		title, link := articleLink(art)
		if link == "" {
			return
		}
		entries = append(entries, entity.Entry{
			Title:       title,
			Link:        link,
			Description: strings.TrimSpace(art.Find("p").First().Text()),
			Author:      strings.TrimSpace(art.Find(`[rel="author"], .author`).First().Text()),
			Published:   articleTime(art),
			Image:       articleImage(art),
		})
	})
	return entries, nil
}

// articleLink returns the first anchor with an href. When that anchor only
// wraps an image, a heading link supplies the title instead.
func articleLink(art *goquery.Selection) (title, href string) {
	a := art.Find("a[href]").First()
	if a.Length() == 0 {
		return "", ""
	}
	href = strings.TrimSpace(a.AttrOr("href", ""))
	title = strings.TrimSpace(a.Text())
	if title == "" {
		if h := art.Find("h1 a[href], h2 a[href], h3 a[href]").First(); h.Length() > 0 {
			title = strings.TrimSpace(h.Text())
			href = strings.TrimSpace(h.AttrOr("href", href))
		}
	}
	return title, href
}

func articleImage(art *goquery.Selection) string {
	img := art.Find("img").First()
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	return ""
}

func articleTime(art *goquery.Selection) string {
	t := art.Find("time").First()
	if v := strings.TrimSpace(t.AttrOr("datetime", "")); v != "" {
		return v
	}
	return strings.TrimSpace(t.Text())
}

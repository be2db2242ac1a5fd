package extract

import (
	"net/url"
	"strings"

	"feedhub/internal/domain/entity"
	"feedhub/internal/utils/text"
)

// BuildOptions carries the per-source context an article is built under.
type BuildOptions struct {
	// Category is the source category label.
	Category string
	// Publisher is the upstream publisher name.
	Publisher string
	// Base resolves relative entry links (the source endpoint URL).
	Base string
	// MaxDescription caps the description in runes; 0 keeps it whole.
	MaxDescription int
}

// BuildArticle composes the field extractors into one Article. Entries without
// a title or an absolute link are rejected with ErrMissingTitle or
// ErrMissingLink; every other field falls back to its sentinel.
func BuildArticle(e entity.Entry, opts BuildOptions) (entity.Article, error) {
	title := Text(e.Title)
	if title == "" {
		return entity.Article{}, ErrMissingTitle
	}

	link := absoluteLink(e.Link, opts.Base)
	if link == "" {
		return entity.Article{}, ErrMissingLink
	}

	description := Text(e.Description)
	if description == "" {
		description = Text(e.Content)
	}
	if description == "" {
		description = NoDescription
	} else {
		description = text.Truncate(description, opts.MaxDescription)
	}

	author := Text(e.Author)
	if author == "" {
		author = UnknownAuthor
	}

	article := entity.Article{
		Title:       title,
		Link:        link,
		Description: description,
		Author:      author,
		PublishedAt: Timestamp(e.Published),
		Topics:      Topics(e),
		Category:    opts.Category,
		SourceName:  opts.Publisher,
	}
	if img := Image(e, link); img != "" {
		article.ImageURL = &img
	}
	return article, nil
}

// WithImage returns a copy of a with its image set to imageURL.
func WithImage(a entity.Article, imageURL string) entity.Article {
	if imageURL == "" {
		return a
	}
	img := imageURL
	a.ImageURL = &img
	return a
}

func absoluteLink(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		b := parseBase(base)
		if b == nil {
			return ""
		}
		u = b.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return ""
	}
	return u.String()
}

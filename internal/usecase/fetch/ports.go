package fetch

import (
	"context"

	"feedhub/internal/domain/entity"
)

// EntryFetcher retrieves one source endpoint and returns its raw entries in
// document order.
type EntryFetcher interface {
	Fetch(ctx context.Context, url string) ([]entity.Entry, error)
}

// ImageLookup finds the social-preview image of an article page.
type ImageLookup interface {
	LookupImage(ctx context.Context, pageURL string) (string, error)
}

// ArticleCache memoizes a source's article list.
type ArticleCache interface {
	Get(ctx context.Context, key string) ([]entity.Article, bool)
	Set(ctx context.Context, key string, articles []entity.Article)
}

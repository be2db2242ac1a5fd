package scraper

import (
	"net/http"

	"feedhub/internal/domain/entity"
	"feedhub/internal/usecase/fetch"
)

// NewFetchers returns the entry fetcher for every supported source kind,
// sharing client and opts.
func NewFetchers(client *http.Client, opts ...Option) map[entity.SourceKind]fetch.EntryFetcher {
	return map[entity.SourceKind]fetch.EntryFetcher{
		entity.SourceKindRSS:  NewRSSFetcher(client, opts...),
		entity.SourceKindHTML: NewPageScraper(client, opts...),
	}
}

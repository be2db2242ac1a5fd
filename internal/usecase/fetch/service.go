// Package fetch implements the Source Fetcher: one bounded retrieval of a
// source, normalization of its entries into articles, and the optional
// secondary image lookup for articles the feed left without an image.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"feedhub/internal/domain/entity"
	"feedhub/internal/extract"
	"feedhub/internal/observability/metrics"
	"feedhub/internal/observability/tracing"
)

// Config tunes a Service.
type Config struct {
	EntryCap               int
	FeedTimeout            time.Duration
	ImageLookupTimeout     time.Duration
	ImageLookupParallelism int
	DescriptionMaxLength   int
	// DefaultPublisher names articles of sources without their own Publisher.
	DefaultPublisher string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		EntryCap:               15,
		FeedTimeout:            10 * time.Second,
		ImageLookupTimeout:     5 * time.Second,
		ImageLookupParallelism: 4,
		DefaultPublisher:       "TechCrunch",
	}
}

// Service fetches and normalizes single sources.
type Service struct {
	fetchers map[entity.SourceKind]EntryFetcher
	images   ImageLookup
	cache    ArticleCache
	cfg      Config
	logger   *slog.Logger
}

// NewService wires a Service. images and cache may be nil to disable the
// secondary image lookup and the per-source cache.
func NewService(
	fetchers map[entity.SourceKind]EntryFetcher,
	images ImageLookup,
	cache ArticleCache,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.EntryCap <= 0 {
		cfg.EntryCap = def.EntryCap
	}
	if cfg.FeedTimeout <= 0 {
		cfg.FeedTimeout = def.FeedTimeout
	}
	if cfg.ImageLookupTimeout <= 0 {
		cfg.ImageLookupTimeout = def.ImageLookupTimeout
	}
	if cfg.ImageLookupParallelism <= 0 {
		cfg.ImageLookupParallelism = def.ImageLookupParallelism
	}
	return &Service{
		fetchers: fetchers,
		images:   images,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
	}
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Fetch returns the normalized articles of src. It never returns an error:
// failures are reported through SourceResult.Err and Reason with an empty
// article list. Only successful, non-empty results are cached.
func (s *Service) Fetch(ctx context.Context, src entity.Source) SourceResult {
	start := time.Now()
	ctx, span := tracing.GetTracer().Start(ctx, "fetch.source",
		trace.WithAttributes(
			attribute.String("source.category", src.Category),
			attribute.String("source.url", src.URL),
		))
	defer span.End()

	key := src.CacheKey()
	if s.cache != nil {
		if articles, ok := s.cache.Get(ctx, key); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true), attribute.Int("articles", len(articles)))
			res := SourceResult{
				Source:   src,
				Articles: articles,
				Reason:   ReasonOK,
				Cached:   true,
				Duration: time.Since(start),
			}
			metrics.RecordSourceFetch(src.Category, "cached", res.Duration, 0)
			return res
		}
	}

	articles, err := s.fetchFresh(ctx, src)
	res := SourceResult{
		Source:   src,
		Articles: articles,
		Err:      err,
		Reason:   Classify(err),
		Duration: time.Since(start),
	}
	if err != nil {
		res.Articles = []entity.Article{}
		tracing.RecordError(span, err)
	} else if len(articles) > 0 && s.cache != nil {
		// the aggregate deadline may already have passed; the fetch still finished
		s.cache.Set(context.WithoutCancel(ctx), key, articles)
	}

	span.SetAttributes(attribute.String("fetch.reason", string(res.Reason)), attribute.Int("articles", len(res.Articles)))
	metrics.RecordSourceFetch(src.Category, string(res.Reason), res.Duration, len(res.Articles))
	return res
}

func (s *Service) fetchFresh(ctx context.Context, src entity.Source) ([]entity.Article, error) {
	entries, err := s.retrieve(ctx, src)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyFeed
	}
	if len(entries) > s.cfg.EntryCap {
		entries = entries[:s.cfg.EntryCap]
	}

	publisher := src.Publisher
	if publisher == "" {
		publisher = s.cfg.DefaultPublisher
	}
	opts := extract.BuildOptions{
		Category:       src.Category,
		Publisher:      publisher,
		Base:           src.URL,
		MaxDescription: s.cfg.DescriptionMaxLength,
	}

	articles := make([]entity.Article, 0, len(entries))
	var missingTitle, missingLink int
	for _, e := range entries {
		a, err := extract.BuildArticle(e, opts)
		switch {
		case errors.Is(err, extract.ErrMissingTitle):
			missingTitle++
			continue
		case errors.Is(err, extract.ErrMissingLink):
			missingLink++
			continue
		}
		articles = append(articles, a)
	}
	metrics.RecordEntryDropped("missing_title", missingTitle)
	metrics.RecordEntryDropped("missing_link", missingLink)
	if dropped := missingTitle + missingLink; dropped > 0 {
		s.logger.Debug("dropped invalid entries",
			slog.String("category", src.Category),
			slog.Int("missing_title", missingTitle),
			slog.Int("missing_link", missingLink))
	}

	s.lookupImages(ctx, articles)
	return articles, nil
}

func (s *Service) retrieve(ctx context.Context, src entity.Source) ([]entity.Entry, error) {
	kind := src.Kind
	if kind == "" {
		kind = entity.SourceKindRSS
	}
	fetcher, ok := s.fetchers[kind]
	if !ok || fetcher == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.FeedTimeout)
	defer cancel()

	entries, err := fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.URL, err)
	}
	return entries, nil
}

// lookupImages fills in missing images in place. Each goroutine owns one
// index of articles. The whole phase shares one ImageLookupTimeout, so a
// source never takes longer than FeedTimeout plus ImageLookupTimeout.
func (s *Service) lookupImages(ctx context.Context, articles []entity.Article) {
	if s.images == nil {
		return
	}

	var pending int
	for i := range articles {
		if !articles[i].HasImage() {
			pending++
		}
	}
	if pending == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ImageLookupTimeout)
	defer cancel()
	ctx, span := tracing.GetTracer().Start(ctx, "fetch.image_lookup",
		trace.WithAttributes(attribute.Int("lookups", pending)))
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ImageLookupParallelism)
	for i := range articles {
		if articles[i].HasImage() {
			continue
		}
		g.Go(func() error {
			link := articles[i].Link
			start := time.Now()
			raw, err := s.images.LookupImage(gctx, link)
			elapsed := time.Since(start)
			if err != nil {
				result := "error"
				if errors.Is(err, ErrNoImage) {
					result = "not_found"
				}
				metrics.RecordImageLookup(result, elapsed)
				s.logger.Debug("image lookup failed",
					slog.String("url", link),
					slog.Any("error", err))
				return nil
			}

			img := extract.ResolveImageURL(raw, link)
			if img == "" {
				metrics.RecordImageLookup("not_found", elapsed)
				return nil
			}
			metrics.RecordImageLookup("found", elapsed)
			articles[i] = extract.WithImage(articles[i], img)
			return nil
		})
	}
	_ = g.Wait()
}

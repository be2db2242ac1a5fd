// Package aggregate implements the Aggregation Coordinator: a bounded worker
// pool fans out one fetch per configured source, merges the articles in
// completion order and caches the merged result.
package aggregate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"feedhub/internal/domain/entity"
	"feedhub/internal/observability/metrics"
	"feedhub/internal/observability/tracing"
	"feedhub/internal/usecase/fetch"
)

// SourceFetcher fetches one source. It must not fail: errors are reported
// inside the result.
type SourceFetcher interface {
	Fetch(ctx context.Context, src entity.Source) fetch.SourceResult
}

// ResultCache stores whole aggregate results.
type ResultCache interface {
	Get(ctx context.Context, key string) (entity.AggregateResult, bool)
	Set(ctx context.Context, key string, result entity.AggregateResult)
}

// Config tunes a Service.
type Config struct {
	// Name identifies the aggregate in the response cache key.
	Name        string
	Concurrency int
	// Timeout bounds a whole fan-out. Sources still running at the deadline
	// are reported as timed out and contribute nothing.
	Timeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{Name: "news", Concurrency: 5, Timeout: 15 * time.Second}
}

// SourceStatus is the per-source outcome of one aggregation.
type SourceStatus struct {
	Category string        `json:"category"`
	URL      string        `json:"url"`
	Reason   fetch.Reason  `json:"reason"`
	Articles int           `json:"articles"`
	Cached   bool          `json:"cached"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// Report is the outcome of Aggregate, Refresh or Collect. Sources is empty
// for a response-cache hit.
type Report struct {
	Result   entity.AggregateResult
	Sources  []SourceStatus
	Cached   bool
	Duration time.Duration
}

// Failed returns the number of sources that did not contribute.
func (r Report) Failed() int {
	n := 0
	for _, s := range r.Sources {
		if s.Reason != fetch.ReasonOK {
			n++
		}
	}
	return n
}

// Service coordinates aggregation over a fixed source list.
type Service struct {
	sources []entity.Source
	fetcher SourceFetcher
	cache   ResultCache
	cfg     Config
	logger  *slog.Logger

	mu   sync.RWMutex
	last []SourceStatus
	at   time.Time
}

// NewService wires a Service. cache may be nil to disable response caching.
func NewService(sources []entity.Source, fetcher SourceFetcher, cache ResultCache, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Service{
		sources: append([]entity.Source(nil), sources...),
		fetcher: fetcher,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
	}
}

// CacheKey is the response cache key of this aggregate.
func (s *Service) CacheKey() string {
	return "aggregate:" + s.cfg.Name
}

// Categories returns the configured category labels in configuration order.
func (s *Service) Categories() []string {
	out := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		out = append(out, src.Category)
	}
	return out
}

// LastStatuses returns the per-source statuses of the most recent fan-out
// and when it finished. Cache hits do not replace them.
func (s *Service) LastStatuses() ([]SourceStatus, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SourceStatus(nil), s.last...), s.at
}

// Aggregate serves the response cache when it holds a fresh result and
// otherwise runs Refresh.
func (s *Service) Aggregate(ctx context.Context) Report {
	start := time.Now()
	if s.cache != nil {
		if result, ok := s.cache.Get(ctx, s.CacheKey()); ok {
			rep := Report{Result: result, Cached: true, Duration: time.Since(start)}
			metrics.RecordAggregate(true, rep.Duration, result.Len())
			return rep
		}
	}
	return s.Refresh(ctx)
}

// Refresh runs the fan-out over every configured source and overwrites the
// response cache. A run in which every source failed is not cached, so the
// next request retries instead of serving an empty result for the TTL.
func (s *Service) Refresh(ctx context.Context) Report {
	rep := s.Collect(ctx, s.sources)

	s.mu.Lock()
	s.last = rep.Sources
	s.at = time.Now()
	s.mu.Unlock()

	allFailed := len(rep.Sources) > 0 && rep.Failed() == len(rep.Sources)
	switch {
	case s.cache == nil:
	case allFailed:
		s.logger.Warn("all sources failed, response not cached",
			slog.Int("sources", len(rep.Sources)))
	default:
		s.cache.Set(ctx, s.CacheKey(), rep.Result)
	}

	metrics.RecordAggregate(false, rep.Duration, rep.Result.Len())
	return rep
}

type job struct {
	index  int
	source entity.Source
}

type outcome struct {
	index  int
	result fetch.SourceResult
}

type sourcedArticle struct {
	index   int
	article entity.Article
}

// preferEarliestSource drops every copy of a link except those from the
// lowest configuration index that carries it, keeping completion order.
func preferEarliestSource(merged []sourcedArticle) []entity.Article {
	owner := make(map[string]int, len(merged))
	for _, sa := range merged {
		if cur, ok := owner[sa.article.Link]; !ok || sa.index < cur {
			owner[sa.article.Link] = sa.index
		}
	}
	out := make([]entity.Article, 0, len(merged))
	for _, sa := range merged {
		if owner[sa.article.Link] == sa.index {
			out = append(out, sa.article)
		}
	}
	return out
}

// Collect fetches sources with at most Concurrency fetches in flight and
// merges the results in completion order. A link carried by several sources
// is attributed to the source listed first in the configuration. It never fails; sources that miss
// the deadline are reported with fetch.ReasonTimeout.
func (s *Service) Collect(ctx context.Context, sources []entity.Source) Report {
	start := time.Now()
	ctx, span := tracing.GetTracer().Start(ctx, "aggregate.collect",
		trace.WithAttributes(
			attribute.Int("sources", len(sources)),
			attribute.Int("concurrency", s.cfg.Concurrency),
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	jobs := make(chan job, len(sources))
	for i, src := range sources {
		jobs <- job{index: i, source: src}
	}
	close(jobs)

	// Buffered to len(sources) so workers never block on a collector that
	// stopped at the deadline.
	done := make(chan outcome, len(sources))

	var g errgroup.Group
	for range min(s.cfg.Concurrency, len(sources)) {
		g.Go(func() error {
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					done <- outcome{index: j.index, result: fetch.SourceResult{
						Source: j.source, Articles: []entity.Article{}, Err: err, Reason: fetch.Classify(err),
					}}
					continue
				}
				finished := metrics.FetchStarted()
				done <- outcome{index: j.index, result: s.fetcher.Fetch(ctx, j.source)}
				finished()
			}
			return nil
		})
	}

	statuses := make([]SourceStatus, len(sources))
	received := make([]bool, len(sources))
	var merged []sourcedArticle
	record := func(o outcome) {
		received[o.index] = true
		statuses[o.index] = s.status(o.result)
		for _, a := range o.result.Articles {
			merged = append(merged, sourcedArticle{index: o.index, article: a})
		}
	}

	gather(ctx, done, len(sources), record)

	timedOut := 0
	for i, ok := range received {
		if ok {
			continue
		}
		timedOut++
		statuses[i] = SourceStatus{
			Category: sources[i].Category,
			URL:      sources[i].URL,
			Reason:   fetch.ReasonTimeout,
			Duration: time.Since(start),
			Error:    "aggregate deadline exceeded",
		}
		s.logger.Warn("source fetch abandoned at aggregate deadline",
			slog.String("category", sources[i].Category),
			slog.String("url", sources[i].URL))
	}
	if timedOut == 0 {
		_ = g.Wait()
	}

	rep := Report{
		Result:   entity.NewAggregateResult(preferEarliestSource(merged)),
		Sources:  statuses,
		Duration: time.Since(start),
	}
	span.SetAttributes(
		attribute.Int("articles", rep.Result.Len()),
		attribute.Int("failed_sources", rep.Failed()),
	)
	s.logger.Info("aggregation completed",
		slog.Int("sources", len(sources)),
		slog.Int("failed", rep.Failed()),
		slog.Int("articles", rep.Result.Len()),
		slog.Int("topics", len(rep.Result.Topics)),
		slog.Duration("duration", rep.Duration))
	return rep
}

// gather receives up to n outcomes until ctx ends. Outcomes already buffered
// when ctx ends are still recorded, since select picks randomly among ready
// cases.
func gather(ctx context.Context, done <-chan outcome, n int, record func(outcome)) {
	for range n {
		select {
		case o := <-done:
			record(o)
		case <-ctx.Done():
			for {
				select {
				case o := <-done:
					record(o)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) status(res fetch.SourceResult) SourceStatus {
	st := SourceStatus{
		Category: res.Source.Category,
		URL:      res.Source.URL,
		Reason:   res.Reason,
		Articles: len(res.Articles),
		Cached:   res.Cached,
		Duration: res.Duration,
	}
	if res.Err != nil {
		st.Error = res.Err.Error()
		s.logger.Warn("source fetch failed",
			slog.String("category", res.Source.Category),
			slog.String("url", res.Source.URL),
			slog.String("reason", string(res.Reason)),
			slog.Any("error", res.Err))
	}
	return st
}

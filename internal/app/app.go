// Package app assembles the aggregator pipeline shared by the API server and
// the cache warmer: configuration, cache backend, circuit breakers, upstream
// fetchers and the fetch and aggregate services.
package app

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"feedhub/internal/config"
	"feedhub/internal/domain/entity"
	"feedhub/internal/infra/cache"
	"feedhub/internal/infra/fetcher"
	"feedhub/internal/infra/scraper"
	"feedhub/internal/observability/metrics"
	pkgconfig "feedhub/internal/pkg/config"
	"feedhub/internal/repository"
	"feedhub/internal/resilience/circuitbreaker"
	"feedhub/internal/resilience/retry"
	"feedhub/internal/usecase/aggregate"
	"feedhub/internal/usecase/fetch"
)

// imageBreakerPrefix keeps image-lookup breakers apart from feed breakers
// on the same host.
const imageBreakerPrefix = "image:"

// App is the assembled pipeline.
type App struct {
	Config  *config.AggregatorConfig
	Sources *config.SourceList

	Store         repository.CacheStore
	FeedBreakers  *circuitbreaker.Registry
	ImageBreakers *circuitbreaker.Registry

	Fetch     *fetch.Service
	Aggregate *aggregate.Service

	logger *slog.Logger
}

// Build loads configuration from the environment and wires every component.
// component names the config metrics series ("api" or "worker").
func Build(component string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cm := pkgconfig.NewConfigMetrics(component)

	cfg, err := config.LoadConfigFromEnv(logger, cm)
	if err != nil {
		return nil, fmt.Errorf("load aggregator config: %w", err)
	}
	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	imgCfg := fetcher.DefaultConfig()
	imgCfg.Timeout = cfg.ImageLookupTimeout
	imgCfg.UserAgent = cfg.UserAgent
	imgCfg.RatePerHost = cfg.ImageLookupRPS
	imgCfg, err = fetcher.LoadConfigFromEnv(imgCfg, logger, cm)
	if err != nil {
		return nil, fmt.Errorf("load image lookup config: %w", err)
	}

	return New(cfg, sources, imgCfg, logger)
}

// New wires an App from already loaded configuration.
func New(cfg *config.AggregatorConfig, sources *config.SourceList, imgCfg fetcher.ImageFetchConfig, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}

	feedBreakers := circuitbreaker.NewRegistry(circuitbreaker.FeedFetchConfig, publishBreakerState)
	imageBreakers := circuitbreaker.NewRegistry(func(name string) circuitbreaker.Config {
		c := circuitbreaker.ImageLookupConfig(imageBreakerPrefix + name)
		c.IsSuccessful = circuitbreaker.IgnoreErrors(fetch.ErrNoImage)
		return c
	}, publishBreakerState)

	fetchers := scraper.NewFetchers(newHTTPClient(cfg.FeedTimeout),
		scraper.WithUserAgent(cfg.UserAgent),
		scraper.WithBreakers(feedBreakers),
		scraper.WithRetry(feedRetry(cfg.FetchAttempts)))

	var images fetch.ImageLookup
	if cfg.ImageLookupEnabled {
		images = fetcher.NewImageFetcher(imgCfg, imageBreakers, nil)
	}

	fetchSvc := fetch.NewService(
		fetchers,
		images,
		cache.NewJSONCache[[]entity.Article](store, cache.LayerSource, cfg.SourceCacheTTL, logger),
		fetch.Config{
			EntryCap:               cfg.EntryCap,
			FeedTimeout:            cfg.FeedTimeout,
			ImageLookupTimeout:     cfg.ImageLookupTimeout,
			ImageLookupParallelism: cfg.ImageLookupParallelism,
			DescriptionMaxLength:   cfg.DescriptionMaxLength,
			DefaultPublisher:       cfg.SourceName,
		},
		logger,
	)

	aggSvc := aggregate.NewService(
		sources.Sources,
		fetchSvc,
		cache.NewJSONCache[entity.AggregateResult](store, cache.LayerResponse, cfg.ResponseCacheTTL, logger),
		aggregate.Config{
			Name:        cfg.SourceName,
			Concurrency: cfg.Concurrency,
			Timeout:     cfg.AggregateTimeout,
		},
		logger,
	)

	logger.Info("aggregator assembled",
		slog.String("source_name", cfg.SourceName),
		slog.Int("sources", len(sources.Sources)),
		slog.Int("entry_cap", cfg.EntryCap),
		slog.Int("concurrency", cfg.Concurrency),
		slog.Duration("source_cache_ttl", cfg.SourceCacheTTL),
		slog.Duration("response_cache_ttl", cfg.ResponseCacheTTL),
		slog.String("cache_backend", cfg.CacheBackend),
		slog.Bool("image_lookup", cfg.ImageLookupEnabled))

	return &App{
		Config:        cfg,
		Sources:       sources,
		Store:         store,
		FeedBreakers:  feedBreakers,
		ImageBreakers: imageBreakers,
		Fetch:         fetchSvc,
		Aggregate:     aggSvc,
		logger:        logger,
	}, nil
}

// NewStore returns the cache backend selected by CacheBackend.
func NewStore(cfg *config.AggregatorConfig) (repository.CacheStore, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendMemory, "":
		return cache.NewMemoryStore(), nil
	case config.CacheBackendRedis:
		rc := cache.DefaultRedisConfig()
		rc.Addr = cfg.RedisAddr
		rc.Password = cfg.RedisPassword
		rc.DB = cfg.RedisDB
		return cache.NewRedisStore(rc), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

// States merges feed and image breaker states into one map keyed by breaker
// name.
func (a *App) States() map[string]string {
	states := a.FeedBreakers.States()
	for name, state := range a.ImageBreakers.States() {
		states[imageBreakerPrefix+name] = state
	}
	return states
}

// Close releases the cache backend.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.logger.Error("failed to close cache store", slog.Any("error", err))
	}
}

func publishBreakerState(name string, _, to gobreaker.State) {
	metrics.SetBreakerState(name, to.String())
}

// newHTTPClient returns the shared upstream client. TLS 1.2+ is enforced.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

func feedRetry(attempts int) retry.Config {
	cfg := retry.FeedFetchConfig()
	cfg.MaxAttempts = attempts
	return cfg
}

// Package config holds the service-level configuration of the news
// aggregator: tuning knobs loaded from the environment and the source list
// loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	pkgconfig "feedhub/internal/pkg/config"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// DefaultUserAgent is sent on every outbound request unless USER_AGENT is set.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// AggregatorConfig configures the fetch, aggregate and cache pipeline.
type AggregatorConfig struct {
	// SourcesFile points at a YAML source list. Empty selects the embedded default.
	SourcesFile string
	SourceName  string

	// EntryCap is K, the number of feed entries processed per source.
	EntryCap             int
	DescriptionMaxLength int

	SourceCacheTTL   time.Duration
	ResponseCacheTTL time.Duration

	Concurrency int
	// FetchAttempts bounds tries per upstream GET, including the first. The
	// default of 1 is a single attempt; retries are opt-in.
	FetchAttempts    int
	FeedTimeout      time.Duration
	AggregateTimeout time.Duration

	ImageLookupEnabled     bool
	ImageLookupTimeout     time.Duration
	ImageLookupParallelism int
	ImageLookupRPS         float64

	UserAgent           string
	PlaceholderImageURL string

	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	HTTPAddr string
}

// DefaultAggregatorConfig returns the production defaults.
func DefaultAggregatorConfig() AggregatorConfig {
	cfg := AggregatorConfig{
		SourceName:             "TechCrunch",
		EntryCap:               15,
		SourceCacheTTL:         600 * time.Second,
		ResponseCacheTTL:       300 * time.Second,
		Concurrency:            5,
		FetchAttempts:          1,
		FeedTimeout:            10 * time.Second,
		ImageLookupEnabled:     true,
		ImageLookupTimeout:     5 * time.Second,
		ImageLookupParallelism: 4,
		ImageLookupRPS:         5,
		UserAgent:              DefaultUserAgent,
		CacheBackend:           CacheBackendMemory,
		RedisAddr:              "localhost:6379",
		HTTPAddr:               ":8080",
	}
	cfg.AggregateTimeout = cfg.SourceBudget()
	return cfg
}

// SourceBudget is the longest one source may take: the feed retrieval plus,
// when enabled, the shared image-lookup window.
func (c *AggregatorConfig) SourceBudget() time.Duration {
	if c.ImageLookupEnabled {
		return c.FeedTimeout + c.ImageLookupTimeout
	}
	return c.FeedTimeout
}

// Validate checks individual ranges and the cross-field constraints
// RESPONSE_CACHE_TTL <= SOURCE_CACHE_TTL and AGGREGATE_TIMEOUT >= FEED_TIMEOUT.
func (c *AggregatorConfig) Validate() error {
	var errs []error

	if c.SourceName == "" {
		errs = append(errs, errors.New("source name: must not be empty"))
	}
	if err := pkgconfig.ValidateIntRange(c.EntryCap, 1, 100); err != nil {
		errs = append(errs, fmt.Errorf("entry cap: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.DescriptionMaxLength, 0, 10000); err != nil {
		errs = append(errs, fmt.Errorf("description max length: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.Concurrency, 1, 64); err != nil {
		errs = append(errs, fmt.Errorf("fetch concurrency: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.FetchAttempts, 1, 5); err != nil {
		errs = append(errs, fmt.Errorf("fetch attempts: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.ImageLookupParallelism, 1, 32); err != nil {
		errs = append(errs, fmt.Errorf("image lookup parallelism: %w", err))
	}
	if c.ImageLookupRPS <= 0 {
		errs = append(errs, fmt.Errorf("image lookup rps: must be positive, got %v", c.ImageLookupRPS))
	}
	for name, d := range map[string]time.Duration{
		"source cache ttl":     c.SourceCacheTTL,
		"response cache ttl":   c.ResponseCacheTTL,
		"feed timeout":         c.FeedTimeout,
		"aggregate timeout":    c.AggregateTimeout,
		"image lookup timeout": c.ImageLookupTimeout,
	} {
		if err := pkgconfig.ValidatePositiveDuration(d); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.ResponseCacheTTL > c.SourceCacheTTL {
		errs = append(errs, fmt.Errorf("response cache ttl %v exceeds source cache ttl %v", c.ResponseCacheTTL, c.SourceCacheTTL))
	}
	if c.AggregateTimeout < c.FeedTimeout {
		errs = append(errs, fmt.Errorf("aggregate timeout %v is shorter than feed timeout %v", c.AggregateTimeout, c.FeedTimeout))
	}
	if err := pkgconfig.ValidateOneOf(CacheBackendMemory, CacheBackendRedis)(c.CacheBackend); err != nil {
		errs = append(errs, fmt.Errorf("cache backend: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid aggregator config: %w", errors.Join(errs...))
	}
	return nil
}

// LoadConfigFromEnv overlays environment variables on the defaults. Invalid
// values fall back to defaults with a warning. Cross-field violations that
// remain after loading are returned as an error.
func LoadConfigFromEnv(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (*AggregatorConfig, error) {
	cfg := DefaultAggregatorConfig()
	t := pkgconfig.NewTracker(logger, metrics)
	positive := pkgconfig.ValidatePositiveDuration

	cfg.SourcesFile = pkgconfig.LoadEnvString("SOURCES_FILE", cfg.SourcesFile)
	cfg.SourceName = pkgconfig.LoadEnvString("SOURCE_NAME", cfg.SourceName)
	cfg.EntryCap = pkgconfig.Apply(t, "entry_cap",
		pkgconfig.LoadEnvInt("ENTRY_CAP", cfg.EntryCap, pkgconfig.IntRange(1, 100)))
	cfg.DescriptionMaxLength = pkgconfig.Apply(t, "description_max_length",
		pkgconfig.LoadEnvInt("DESCRIPTION_MAX_LENGTH", cfg.DescriptionMaxLength, pkgconfig.IntRange(0, 10000)))

	cfg.SourceCacheTTL = pkgconfig.Apply(t, "source_cache_ttl",
		pkgconfig.LoadEnvDuration("SOURCE_CACHE_TTL", cfg.SourceCacheTTL, positive))
	cfg.ResponseCacheTTL = pkgconfig.Apply(t, "response_cache_ttl",
		pkgconfig.LoadEnvDuration("RESPONSE_CACHE_TTL", cfg.ResponseCacheTTL, positive))

	cfg.Concurrency = pkgconfig.Apply(t, "fetch_concurrency",
		pkgconfig.LoadEnvInt("FETCH_CONCURRENCY", cfg.Concurrency, pkgconfig.IntRange(1, 64)))
	cfg.FetchAttempts = pkgconfig.Apply(t, "fetch_attempts",
		pkgconfig.LoadEnvInt("FETCH_ATTEMPTS", cfg.FetchAttempts, pkgconfig.IntRange(1, 5)))
	cfg.FeedTimeout = pkgconfig.Apply(t, "feed_timeout",
		pkgconfig.LoadEnvDuration("FEED_TIMEOUT", cfg.FeedTimeout, pkgconfig.DurationRange(time.Second, 2*time.Minute)))

	cfg.ImageLookupEnabled = pkgconfig.Apply(t, "image_lookup_enabled",
		pkgconfig.LoadEnvBool("IMAGE_LOOKUP_ENABLED", cfg.ImageLookupEnabled))
	cfg.ImageLookupTimeout = pkgconfig.Apply(t, "image_lookup_timeout",
		pkgconfig.LoadEnvDuration("IMAGE_LOOKUP_TIMEOUT", cfg.ImageLookupTimeout, pkgconfig.DurationRange(100*time.Millisecond, time.Minute)))
	cfg.ImageLookupParallelism = pkgconfig.Apply(t, "image_lookup_parallelism",
		pkgconfig.LoadEnvInt("IMAGE_LOOKUP_PARALLELISM", cfg.ImageLookupParallelism, pkgconfig.IntRange(1, 32)))
	cfg.ImageLookupRPS = pkgconfig.Apply(t, "image_lookup_rps",
		pkgconfig.LoadEnvFloat("IMAGE_LOOKUP_RPS", cfg.ImageLookupRPS, positiveFloat))

	// Without AGGREGATE_TIMEOUT the outer deadline follows the per-source
	// budget of the loaded timeouts.
	cfg.AggregateTimeout = pkgconfig.Apply(t, "aggregate_timeout",
		pkgconfig.LoadEnvDuration("AGGREGATE_TIMEOUT", cfg.SourceBudget(), pkgconfig.DurationRange(time.Second, 5*time.Minute)))

	cfg.UserAgent = pkgconfig.LoadEnvString("USER_AGENT", cfg.UserAgent)
	cfg.PlaceholderImageURL = pkgconfig.LoadEnvString("PLACEHOLDER_IMAGE_URL", cfg.PlaceholderImageURL)

	cfg.CacheBackend = pkgconfig.Apply(t, "cache_backend",
		pkgconfig.LoadEnvWithFallback("CACHE_BACKEND", cfg.CacheBackend,
			pkgconfig.ValidateOneOf(CacheBackendMemory, CacheBackendRedis)))
	cfg.RedisAddr = pkgconfig.LoadEnvString("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = pkgconfig.LoadEnvString("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = pkgconfig.Apply(t, "redis_db",
		pkgconfig.LoadEnvInt("REDIS_DB", cfg.RedisDB, pkgconfig.IntRange(0, 15)))

	cfg.HTTPAddr = pkgconfig.LoadEnvString("HTTP_ADDR", cfg.HTTPAddr)

	t.Finish()

	if err := cfg.Validate(); err != nil {
		if metrics != nil {
			metrics.RecordValidationError("cross_field")
		}
		return nil, err
	}
	return &cfg, nil
}

func positiveFloat(v float64) error {
	if v <= 0 {
		return fmt.Errorf("must be positive, got %v", v)
	}
	return nil
}

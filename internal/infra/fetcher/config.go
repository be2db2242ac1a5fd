package fetcher

import (
	"fmt"
	"log/slog"
	"time"

	pkgconfig "feedhub/internal/pkg/config"
)

// ImageFetchConfig configures the article page lookups used to find a
// social-preview image.
type ImageFetchConfig struct {
	Timeout        time.Duration
	MaxBodySize    int64
	MaxRedirects   int
	DenyPrivateIPs bool
	UserAgent      string

	// RatePerHost and Burst bound requests to one article host.
	RatePerHost float64
	Burst       int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() ImageFetchConfig {
	return ImageFetchConfig{
		Timeout:        5 * time.Second,
		MaxBodySize:    2 * 1024 * 1024, // 2MB; the meta tags live in <head>
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      "feedhub/1.0",
		RatePerHost:    5,
		Burst:          5,
	}
}

// Validate checks every field range.
func (c *ImageFetchConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxBodySize < 1024 || c.MaxBodySize > 50*1024*1024 {
		return fmt.Errorf("max body size must be between 1KB and 50MB, got %d", c.MaxBodySize)
	}
	if err := pkgconfig.ValidateIntRange(c.MaxRedirects, 0, 10); err != nil {
		return fmt.Errorf("max redirects: %w", err)
	}
	if c.RatePerHost <= 0 {
		return fmt.Errorf("rate per host must be positive, got %v", c.RatePerHost)
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be at least 1, got %d", c.Burst)
	}
	return nil
}

// LoadConfigFromEnv reads the IMAGE_LOOKUP_* variables on top of base.
func LoadConfigFromEnv(base ImageFetchConfig, logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (ImageFetchConfig, error) {
	cfg := base
	t := pkgconfig.NewTracker(logger, metrics)

	cfg.MaxBodySize = int64(pkgconfig.Apply(t, "image_lookup_max_body_size",
		pkgconfig.LoadEnvInt("IMAGE_LOOKUP_MAX_BODY_SIZE", int(cfg.MaxBodySize), pkgconfig.IntRange(1024, 50*1024*1024))))
	cfg.MaxRedirects = pkgconfig.Apply(t, "image_lookup_max_redirects",
		pkgconfig.LoadEnvInt("IMAGE_LOOKUP_MAX_REDIRECTS", cfg.MaxRedirects, pkgconfig.IntRange(0, 10)))
	cfg.DenyPrivateIPs = pkgconfig.Apply(t, "image_lookup_deny_private_ips",
		pkgconfig.LoadEnvBool("IMAGE_LOOKUP_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs))
	cfg.Burst = pkgconfig.Apply(t, "image_lookup_burst",
		pkgconfig.LoadEnvInt("IMAGE_LOOKUP_BURST", cfg.Burst, pkgconfig.IntRange(1, 100)))
	t.Finish()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("image lookup config: %w", err)
	}
	return cfg, nil
}

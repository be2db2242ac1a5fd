package middleware

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"feedhub/internal/pkg/config"
)

// RateLimitConfig controls the per-client limiter.
type RateLimitConfig struct {
	Enabled        bool
	PerSecond      float64
	Burst          int
	TrustedProxies string
}

// DefaultRateLimitConfig allows 5 requests per second with a burst of 20.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Enabled: true, PerSecond: 5, Burst: 20}
}

// Extractor returns the IP extractor the configuration asks for.
func (c RateLimitConfig) Extractor() (IPExtractor, error) {
	if strings.TrimSpace(c.TrustedProxies) == "" {
		return RemoteAddrExtractor{}, nil
	}
	prefixes, err := ParseTrustedProxies(c.TrustedProxies)
	if err != nil {
		return nil, err
	}
	return TrustedProxyExtractor{Trusted: prefixes}, nil
}

// LoadCORSConfigFromEnv reads CORS_ALLOWED_ORIGINS (comma-separated, "*" for
// any) and CORS_MAX_AGE. An invalid origin falls back to the default list.
func LoadCORSConfigFromEnv(logger *slog.Logger, metrics *config.ConfigMetrics) CORSConfig {
	cfg := DefaultCORSConfig()
	t := config.NewTracker(logger, metrics)

	raw := config.Apply(t, "cors_allowed_origins",
		config.LoadEnvWithFallback("CORS_ALLOWED_ORIGINS", strings.Join(cfg.AllowedOrigins, ","), validateOrigins))
	cfg.AllowedOrigins = splitList(raw)
	cfg.MaxAge = config.Apply(t, "cors_max_age",
		config.LoadEnvInt("CORS_MAX_AGE", cfg.MaxAge, config.IntRange(0, 86400)))

	t.Finish()
	return cfg
}

// LoadRateLimitConfigFromEnv reads RATE_LIMIT_ENABLED, RATE_LIMIT_RPS,
// RATE_LIMIT_BURST and RATE_LIMIT_TRUSTED_PROXIES.
func LoadRateLimitConfigFromEnv(logger *slog.Logger, metrics *config.ConfigMetrics) RateLimitConfig {
	cfg := DefaultRateLimitConfig()
	t := config.NewTracker(logger, metrics)

	cfg.Enabled = config.Apply(t, "rate_limit_enabled",
		config.LoadEnvBool("RATE_LIMIT_ENABLED", cfg.Enabled))
	cfg.PerSecond = config.Apply(t, "rate_limit_rps",
		config.LoadEnvFloat("RATE_LIMIT_RPS", cfg.PerSecond, func(v float64) error {
			if v <= 0 || v > 10000 {
				return fmt.Errorf("must be in (0, 10000], got %v", v)
			}
			return nil
		}))
	cfg.Burst = config.Apply(t, "rate_limit_burst",
		config.LoadEnvInt("RATE_LIMIT_BURST", cfg.Burst, config.IntRange(1, 10000)))
	cfg.TrustedProxies = config.Apply(t, "rate_limit_trusted_proxies",
		config.LoadEnvWithFallback("RATE_LIMIT_TRUSTED_PROXIES", "", func(v string) error {
			_, err := ParseTrustedProxies(v)
			return err
		}))

	t.Finish()
	return cfg
}

func validateOrigins(raw string) error {
	list := splitList(raw)
	if len(list) == 0 {
		return fmt.Errorf("no origins")
	}
	for _, o := range list {
		if o == AnyOrigin {
			continue
		}
		u, err := url.Parse(o)
		if err != nil {
			return fmt.Errorf("invalid origin %q: %w", o, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("origin %q must use http or https", o)
		}
		if u.Host == "" || (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
			return fmt.Errorf("origin %q must be scheme://host[:port]", o)
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

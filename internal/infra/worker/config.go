// Package worker holds the cache warmer's configuration, metrics, health
// endpoints and the cron-driven job that keeps the response cache warm.
package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feedhub/internal/pkg/config"
)

// WorkerConfig controls the warm schedule and the worker's listeners.
type WorkerConfig struct {
	// WarmSchedule is a 5-field cron expression. The default fires every four
	// minutes, inside the default 300s response TTL.
	WarmSchedule string

	// Timezone is the IANA zone the schedule is evaluated in.
	Timezone string

	// WarmTimeout bounds one refresh run.
	WarmTimeout time.Duration

	// HealthPort serves /health and /health/ready.
	HealthPort int

	// MetricsPort serves /metrics and /health/sources.
	MetricsPort int
}

// DefaultConfig returns the worker defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		WarmSchedule: "*/4 * * * *",
		Timezone:     "UTC",
		WarmTimeout:  time.Minute,
		HealthPort:   9091,
		MetricsPort:  9090,
	}
}

// Validate collects every invalid field into one error.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.WarmSchedule); err != nil {
		errs = append(errs, fmt.Errorf("warm schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.WarmTimeout, time.Second, time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("warm timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ (both %d)", c.HealthPort))
	}

	return errors.Join(errs...)
}

// Location resolves Timezone, falling back to UTC.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv reads the worker configuration. Invalid values fall back
// to defaults with a warning; the only error is two listeners on one port.
//
// Environment variables:
//   - WARM_SCHEDULE: cron expression (default "*/4 * * * *")
//   - WORKER_TIMEZONE: IANA zone (default "UTC")
//   - WARM_TIMEOUT: duration, 1s-1h (default 1m)
//   - WORKER_HEALTH_PORT: 1024-65535 (default 9091)
//   - METRICS_PORT: 1024-65535 (default 9090)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()

	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	t := config.NewTracker(logger, cm)

	cfg.WarmSchedule = config.Apply(t, "warm_schedule",
		config.LoadEnvWithFallback("WARM_SCHEDULE", cfg.WarmSchedule, config.ValidateCronSchedule))
	cfg.Timezone = config.Apply(t, "timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))
	cfg.WarmTimeout = config.Apply(t, "warm_timeout",
		config.LoadEnvDuration("WARM_TIMEOUT", cfg.WarmTimeout, config.DurationRange(time.Second, time.Hour)))
	cfg.HealthPort = config.Apply(t, "health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, config.IntRange(1024, 65535)))
	cfg.MetricsPort = config.Apply(t, "metrics_port",
		config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, config.IntRange(1024, 65535)))

	t.Finish()

	if cfg.HealthPort == cfg.MetricsPort {
		return nil, fmt.Errorf("health port and metrics port must differ (both %d)", cfg.HealthPort)
	}
	return &cfg, nil
}

package config

import "log/slog"

// Tracker applies loader results to a config struct, logging each
// fallback and counting it against the component's metrics.
type Tracker struct {
	logger  *slog.Logger
	metrics *ConfigMetrics
	applied bool
}

// NewTracker returns a Tracker. metrics may be nil.
func NewTracker(logger *slog.Logger, metrics *ConfigMetrics) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{logger: logger, metrics: metrics}
}

// Apply returns r.Value and records any fallback under field.
func Apply[T any](t *Tracker, field string, r Result[T]) T {
	if !r.FallbackApplied {
		return r.Value
	}
	t.applied = true
	if t.metrics != nil {
		t.metrics.RecordValidationError(field)
		t.metrics.RecordFallback(field)
	}
	for _, w := range r.Warnings {
		t.logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", w))
	}
	return r.Value
}

// FallbackApplied reports whether any Apply call fell back.
func (t *Tracker) FallbackApplied() bool { return t.applied }

// Finish publishes the load timestamp and fallback gauge.
func (t *Tracker) Finish() {
	if t.metrics == nil {
		return
	}
	t.metrics.SetFallbackActive(t.applied)
	t.metrics.RecordLoadTimestamp()
}

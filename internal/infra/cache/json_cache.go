package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"feedhub/internal/observability/metrics"
	"feedhub/internal/repository"
)

// Layer names used in metrics and logs.
const (
	LayerSource   = "source"
	LayerResponse = "response"
)

// JSONCache stores values of type V as JSON in a CacheStore. Backend failures
// never reach the caller: a failed read is reported as a miss and a failed
// write is logged and dropped, so an unavailable cache only costs recomputation.
type JSONCache[V any] struct {
	store  repository.CacheStore
	layer  string
	ttl    time.Duration
	logger *slog.Logger
}

// NewJSONCache returns a typed cache for one layer. A nil store or a
// non-positive ttl disables caching.
func NewJSONCache[V any](store repository.CacheStore, layer string, ttl time.Duration, logger *slog.Logger) *JSONCache[V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONCache[V]{store: store, layer: layer, ttl: ttl, logger: logger}
}

// Enabled reports whether reads and writes go to the store.
func (c *JSONCache[V]) Enabled() bool {
	return c != nil && c.store != nil && c.ttl > 0
}

// TTL returns the entry lifetime.
func (c *JSONCache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached value for key and whether it was a hit.
func (c *JSONCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	if !c.Enabled() {
		return zero, false
	}

	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			metrics.RecordCache(c.layer, "miss")
		} else {
			metrics.RecordCache(c.layer, "error")
			c.logger.Warn("cache read failed, treating as miss",
				slog.String("layer", c.layer),
				slog.String("key", key),
				slog.Any("error", err))
		}
		return zero, false
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		metrics.RecordCache(c.layer, "error")
		c.logger.Warn("cache entry undecodable, dropping",
			slog.String("layer", c.layer),
			slog.String("key", key),
			slog.Any("error", err))
		_ = c.store.Delete(ctx, key)
		return zero, false
	}

	metrics.RecordCache(c.layer, "hit")
	return v, true
}

// Set stores v under key for the layer TTL.
func (c *JSONCache[V]) Set(ctx context.Context, key string, v V) {
	if !c.Enabled() {
		return
	}

	raw, err := json.Marshal(v)
	if err != nil {
		metrics.RecordCache(c.layer, "write_error")
		c.logger.Error("cache encode failed",
			slog.String("layer", c.layer),
			slog.String("key", key),
			slog.Any("error", err))
		return
	}

	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		metrics.RecordCache(c.layer, "write_error")
		c.logger.Warn("cache write failed",
			slog.String("layer", c.layer),
			slog.String("key", key),
			slog.Any("error", err))
	}
}

// Invalidate removes key, ignoring backend errors.
func (c *JSONCache[V]) Invalidate(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("cache delete failed",
			slog.String("layer", c.layer),
			slog.String("key", key),
			slog.Any("error", err))
	}
}

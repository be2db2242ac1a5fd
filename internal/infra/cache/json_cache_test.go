package cache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedhub/internal/domain/entity"
	"feedhub/internal/observability/metrics"
)

// failingStore fails every operation.
type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return f.err
}
func (f failingStore) Delete(context.Context, string) error { return f.err }
func (f failingStore) Ping(context.Context) error           { return f.err }
func (f failingStore) Close() error                         { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func sampleResult() entity.AggregateResult {
	img := "https://img.example.com/a.jpg"
	return entity.NewAggregateResult([]entity.Article{
		{Title: "A", Link: "https://example.com/a", ImageURL: &img, Topics: []string{"AI"}, Category: "AI", SourceName: "TechCrunch"},
		{Title: "B", Link: "https://example.com/b", Topics: []string{"Security"}, Category: "Security", SourceName: "TechCrunch"},
	})
}

func TestJSONCache_RoundTripWithinTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewJSONCache[entity.AggregateResult](NewMemoryStore(WithClock(clock.Now)), LayerResponse, 300*time.Second, quietLogger())

	c.Set(ctx, "aggregate:TechCrunch", sampleResult())

	first, ok := c.Get(ctx, "aggregate:TechCrunch")
	require.True(t, ok)
	clock.Advance(299 * time.Second)
	second, ok := c.Get(ctx, "aggregate:TechCrunch")
	require.True(t, ok)

	assert.Equal(t, sampleResult(), first)
	assert.Equal(t, first, second)

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "aggregate:TechCrunch")
	assert.False(t, ok, "entry must expire at the TTL")
}

func TestJSONCache_RecordsHitAndMiss(t *testing.T) {
	ctx := context.Background()
	c := NewJSONCache[[]entity.Article](NewMemoryStore(), "test-layer", time.Minute, quietLogger())

	hits := metrics.CacheRequestsTotal.WithLabelValues("test-layer", "hit")
	misses := metrics.CacheRequestsTotal.WithLabelValues("test-layer", "miss")
	hitsBefore, missesBefore := testutil.ToFloat64(hits), testutil.ToFloat64(misses)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	c.Set(ctx, "k", []entity.Article{{Title: "t", Link: "https://example.com"}})
	_, ok = c.Get(ctx, "k")
	assert.True(t, ok)

	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(hits))
	assert.Equal(t, missesBefore+1, testutil.ToFloat64(misses))
}

func TestJSONCache_DegradesOnBackendFailure(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	c := NewJSONCache[entity.AggregateResult](failingStore{err: errors.New("connection refused")}, "test-failing", time.Minute, logger)

	errorsBefore := testutil.ToFloat64(metrics.CacheRequestsTotal.WithLabelValues("test-failing", "error"))

	assert.NotPanics(t, func() { c.Set(ctx, "k", sampleResult()) })
	_, ok := c.Get(ctx, "k")

	assert.False(t, ok, "backend error is a miss")
	assert.Equal(t, errorsBefore+1, testutil.ToFloat64(metrics.CacheRequestsTotal.WithLabelValues("test-failing", "error")))
	assert.Contains(t, logs.String(), "cache read failed")
	assert.Contains(t, logs.String(), "cache write failed")
}

func TestJSONCache_UndecodableEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "k", []byte("{not json"), time.Minute))

	c := NewJSONCache[entity.AggregateResult](store, LayerResponse, time.Minute, quietLogger())
	_, ok := c.Get(ctx, "k")

	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestJSONCache_Disabled(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		c    *JSONCache[string]
	}{
		{name: "nil store", c: NewJSONCache[string](nil, LayerSource, time.Minute, nil)},
		{name: "zero ttl", c: NewJSONCache[string](NewMemoryStore(), LayerSource, 0, nil)},
		{name: "nil cache", c: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.c.Enabled())
			tt.c.Set(ctx, "k", "v")
			_, ok := tt.c.Get(ctx, "k")
			assert.False(t, ok)
		})
	}
}

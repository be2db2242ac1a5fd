package metrics

import (
	"strconv"
	"time"
)

// RecordSourceFetch records the outcome of one source fetch.
// result is the fetch reason (ok, timeout, http_status, ...).
func RecordSourceFetch(category, result string, duration time.Duration, articles int) {
	SourceFetchDuration.WithLabelValues(category).Observe(duration.Seconds())
	SourceFetchTotal.WithLabelValues(category, result).Inc()
	if articles > 0 {
		ArticlesFetchedTotal.WithLabelValues(category).Add(float64(articles))
	}
}

// RecordEntryDropped records a raw entry rejected during normalization.
func RecordEntryDropped(reason string, n int) {
	if n <= 0 {
		return
	}
	EntriesDroppedTotal.WithLabelValues(reason).Add(float64(n))
}

// FetchStarted marks a worker slot as taken. Call the returned func when done.
func FetchStarted() func() {
	SourceFetchesInFlight.Inc()
	return SourceFetchesInFlight.Dec
}

// RecordImageLookup records a secondary image lookup.
// Skipped lookups (disabled, breaker open, rate limited) carry no duration.
func RecordImageLookup(result string, duration time.Duration) {
	ImageLookupTotal.WithLabelValues(result).Inc()
	if duration > 0 {
		ImageLookupDuration.Observe(duration.Seconds())
	}
}

// RecordCache records one cache operation for a layer (source or response).
func RecordCache(layer, result string) {
	CacheRequestsTotal.WithLabelValues(layer, result).Inc()
}

// RecordAggregate records an aggregate request and, for computed aggregates,
// the resulting article count.
func RecordAggregate(cached bool, duration time.Duration, articles int) {
	AggregateDuration.WithLabelValues(strconv.FormatBool(cached)).Observe(duration.Seconds())
	if !cached {
		AggregateArticles.Set(float64(articles))
	}
}

// SetBreakerState publishes a circuit breaker state by its string form.
func SetBreakerState(name, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(v)
}

// RecordRateLimited counts one rejected request on a normalized path.
func RecordRateLimited(path string) {
	RateLimitRejectedTotal.WithLabelValues(path).Inc()
}

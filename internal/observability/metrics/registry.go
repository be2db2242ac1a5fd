// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)
)

// Source fetch metrics track upstream retrieval per category
var (
	// SourceFetchDuration measures one source retrieval including parsing and image lookups
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedhub_source_fetch_duration_seconds",
			Help:    "Time taken to fetch and normalize one source",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"category"},
	)

	// SourceFetchTotal counts source fetch outcomes by reason
	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedhub_source_fetch_total",
			Help: "Total number of source fetches by outcome",
		},
		[]string{"category", "result"},
	)

	// SourceFetchesInFlight tracks fetches currently holding a worker slot
	SourceFetchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedhub_source_fetches_in_flight",
			Help: "Number of source fetches currently in flight",
		},
	)

	// ArticlesFetchedTotal counts normalized articles produced per category
	ArticlesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedhub_articles_fetched_total",
			Help: "Total number of articles produced from sources",
		},
		[]string{"category"},
	)

	// EntriesDroppedTotal counts raw entries rejected during normalization
	EntriesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedhub_entries_dropped_total",
			Help: "Total number of feed entries dropped during normalization",
		},
		[]string{"reason"}, // reason: missing_title, missing_link, over_cap
	)

	// CircuitBreakerState exposes breaker state per upstream host (0 closed, 1 half-open, 2 open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedhub_circuit_breaker_state",
			Help: "Circuit breaker state per upstream (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// Image lookup metrics track the secondary article page requests
var (
	// ImageLookupTotal counts image lookups by result
	ImageLookupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedhub_image_lookup_total",
			Help: "Total number of article page image lookups",
		},
		[]string{"result"}, // result: found, not_found, failure, skipped
	)

	// ImageLookupDuration measures time to fetch an article page and read its preview image
	ImageLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedhub_image_lookup_duration_seconds",
			Help:    "Time taken to look up an article preview image",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4},
		},
	)
)

// Cache and aggregation metrics
var (
	// CacheRequestsTotal counts cache reads and write failures per layer
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedhub_cache_requests_total",
			Help: "Total number of cache operations by layer and result",
		},
		[]string{"layer", "result"}, // result: hit, miss, error, write_error
	)

	// AggregateDuration measures one aggregate request end to end
	AggregateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedhub_aggregate_duration_seconds",
			Help:    "Time taken to serve an aggregate, labelled by response cache hit",
			Buckets: prometheus.ExponentialBuckets(0.001, 3, 10),
		},
		[]string{"cached"},
	)

	// RateLimitRejectedTotal counts requests refused by the per-client limiter
	RateLimitRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedhub_rate_limit_rejected_total",
			Help: "Total number of requests rejected by the per-client rate limiter",
		},
		[]string{"path"},
	)

	// AggregateArticles tracks the article count of the latest computed aggregate
	AggregateArticles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedhub_aggregate_articles",
			Help: "Number of articles in the most recently computed aggregate",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Source fetch metrics (duration, outcome, in-flight workers)
//   - Cache hit/miss per layer and aggregate latency
//   - Image lookup metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "feedhub/internal/observability/metrics"
//
//	func fetch(src entity.Source) {
//	    done := metrics.FetchStarted()
//	    defer done()
//	    start := time.Now()
//	    // ... fetch and normalize ...
//	    metrics.RecordSourceFetch(src.Category, "ok", time.Since(start), len(articles))
//	}
package metrics

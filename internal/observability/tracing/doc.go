// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created for every HTTP request (Middleware), every aggregation
// fan-out (aggregate.collect), every source fetch (fetch.source) and every
// secondary image lookup (fetch.image_lookup). No exporter is configured by
// default; the global no-op provider is used until one is installed.
//
// Example usage:
//
//	import "feedhub/internal/observability/tracing"
//
//	func processRequest(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "process-request")
//	    defer span.End()
//	    // ... process request ...
//	}
package tracing

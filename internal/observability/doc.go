// Package observability groups the telemetry used by the API, the warmer
// and the diagnose command.
//
// Subpackages:
//   - logging: slog construction from LOG_LEVEL and LOG_FORMAT, with request
//     and trace ids attached per request
//   - metrics: Prometheus collectors for source fetches, cache layers, image
//     lookups and HTTP traffic
//   - tracing: OpenTelemetry spans around aggregation, per-source fetches and
//     inbound requests
package observability

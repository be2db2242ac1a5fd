// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the aggregator.
//
// Key features:
//   - JSON and text output formats (LOG_FORMAT)
//   - Configurable log levels (LOG_LEVEL)
//   - Request ID and trace ID propagation
//   - Context-aware logging
//
// Example usage:
//
//	import "feedhub/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLoggerFromEnv()
//	    slog.SetDefault(logger)
//	}
//
//	func handleRequest(ctx context.Context) {
//	    logger := logging.WithRequestID(ctx, slog.Default())
//	    logger.Info("serving news")
//	}
package logging

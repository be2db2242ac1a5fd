package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feedhub/internal/handler/http/respond"
	"feedhub/internal/usecase/aggregate"
	"feedhub/internal/usecase/fetch"
)

// statusSource reports the per-source outcome of the latest computed aggregate.
type statusSource interface {
	LastStatuses() ([]aggregate.SourceStatus, time.Time)
}

// breakerSource reports circuit breaker states by name.
type breakerSource interface {
	States() map[string]string
}

// HealthResponse represents a simple health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// SourcesHealthResponse is the body of GET /health/sources.
type SourcesHealthResponse struct {
	Healthy  bool                     `json:"healthy"`
	LastRun  *time.Time               `json:"last_run,omitempty"`
	Failed   int                      `json:"failed"`
	Sources  []aggregate.SourceStatus `json:"sources"`
	Breakers map[string]string        `json:"breakers"`
}

// startMetricsServer serves the worker's metrics and source health on port.
// It shuts down within 5 seconds once ctx is cancelled.
//
// Endpoints:
//   - GET /metrics: Prometheus scrape endpoint
//   - GET /health: liveness, always 200
//   - GET /health/sources: last per-source statuses and breaker states
func startMetricsServer(ctx context.Context, logger *slog.Logger, port int, statuses statusSource, breakers breakerSource) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      metricsMux(statuses, breakers),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

func metricsMux(statuses statusSource, breakers breakerSource) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/health/sources", sourcesHealthHandler(statuses, breakers))
	return mux
}

// healthHandler handles GET /health requests (liveness probe).
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// sourcesHealthHandler answers 200 while at least one source contributed to
// the latest aggregate, and 503 when none did or none has run yet.
func sourcesHealthHandler(statuses statusSource, breakers breakerSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		list, at := statuses.LastStatuses()

		resp := SourcesHealthResponse{
			Sources:  list,
			Breakers: breakers.States(),
		}
		if resp.Sources == nil {
			resp.Sources = []aggregate.SourceStatus{}
		}
		if !at.IsZero() {
			resp.LastRun = &at
		}
		for _, s := range list {
			if s.Reason == fetch.ReasonOK {
				resp.Healthy = true
			} else {
				resp.Failed++
			}
		}

		code := http.StatusOK
		if !resp.Healthy {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(w, code, resp)
	}
}

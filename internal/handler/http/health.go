// Package http provides the HTTP boundary of the aggregator: health probes,
// metrics exposure and the middleware stack shared by the API and worker
// servers. The news endpoints live in the news subpackage.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy", "degraded" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`    // Status of each check item
	Version   string                 `json:"version"`   // Application version
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string                 `json:"status"`            // "healthy", "degraded" or "unhealthy"
	Message string                 `json:"message,omitempty"` // Optional status message
	Details map[string]interface{} `json:"details,omitempty"` // Optional additional details
}

// Pinger is a dependency that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerStates reports the circuit breaker state per upstream host.
type BreakerStates interface {
	States() map[string]string
}

// HealthHandler reports the state of the cache backend and the upstream
// circuit breakers. Neither can make the service unhealthy: a failing cache
// is bypassed and open breakers only mean some sources contribute nothing,
// so both surface as "degraded" with a 200.
type HealthHandler struct {
	Cache    Pinger
	Breakers BreakerStates
	Version  string
}

// ServeHTTP performs health checks and returns the application health status.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus)
	status := "healthy"

	if h.Cache != nil {
		check := checkPinger(ctx, h.Cache)
		checks["cache"] = check
		if check.Status != "healthy" {
			status = "degraded"
		}
	}

	if h.Breakers != nil {
		check := checkBreakers(h.Breakers.States())
		checks["upstreams"] = check
		if check.Status != "healthy" {
			status = "degraded"
		}
	}

	writeHealth(w, http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func checkPinger(ctx context.Context, p Pinger) CheckStatus {
	if err := p.Ping(ctx); err != nil {
		return CheckStatus{Status: "degraded", Message: "cache unreachable, serving uncached"}
	}
	return CheckStatus{Status: "healthy"}
}

func checkBreakers(states map[string]string) CheckStatus {
	details := make(map[string]interface{}, len(states))
	open := 0
	for host, state := range states {
		details[host] = state
		if state == "open" {
			open++
		}
	}
	if open > 0 {
		return CheckStatus{Status: "degraded", Message: "some upstream hosts are short-circuited", Details: details}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

func writeHealth(w http.ResponseWriter, code int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Default().Error("health: failed to encode response", slog.Any("error", err))
	}
}

// ReadyHandler handles readiness probe requests. The instance is ready when
// its cache backend answers; with the in-memory backend that is always true.
type ReadyHandler struct {
	Cache Pinger
}

// ServeHTTP returns 200 OK if ready, or 503 Service Unavailable if the cache
// backend does not answer.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.Cache != nil {
		if err := h.Cache.Ping(ctx); err != nil {
			http.Error(w, "cache not ready", http.StatusServiceUnavailable)
			return
		}
	}

	writeText(w, "ready")
}

// LiveHandler handles liveness probe requests.
type LiveHandler struct{}

// ServeHTTP always returns 200 OK if the process is able to respond.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeText(w, "alive")
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Default().Warn("failed to write probe response", slog.Any("error", err))
	}
}

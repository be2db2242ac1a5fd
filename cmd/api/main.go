package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedhub/internal/app"
	hhttp "feedhub/internal/handler/http"
	"feedhub/internal/handler/http/middleware"
	"feedhub/internal/handler/http/news"
	"feedhub/internal/handler/http/requestid"
	"feedhub/internal/observability/logging"
	"feedhub/internal/observability/tracing"
	pkgconfig "feedhub/internal/pkg/config"
)

func main() {
	logger := logging.NewLoggerFromEnv()
	slog.SetDefault(logger)
	tracing.InstallPropagator()

	version := getVersion()

	a, err := app.Build("api", logger)
	if err != nil {
		logger.Error("failed to assemble aggregator", slog.Any("error", err))
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cm := pkgconfig.NewConfigMetrics("api")
	corsCfg := middleware.LoadCORSConfigFromEnv(logger, cm)
	rlCfg := middleware.LoadRateLimitConfigFromEnv(logger, cm)

	var limiter *middleware.RateLimiter
	if rlCfg.Enabled {
		extractor, err := rlCfg.Extractor()
		if err != nil {
			logger.Error("invalid rate limit configuration", slog.Any("error", err))
			os.Exit(1)
		}
		limiter = middleware.NewRateLimiter(rlCfg.PerSecond, rlCfg.Burst, extractor)
		go startRateLimitCleanup(ctx, limiter, 5*time.Minute, logger)
		logger.Info("rate limiting enabled",
			slog.Float64("per_second", rlCfg.PerSecond),
			slog.Int("burst", rlCfg.Burst))
	} else {
		logger.Warn("rate limiting disabled")
	}

	logger.Info("CORS enabled",
		slog.Any("allowed_origins", corsCfg.AllowedOrigins),
		slog.Int("max_age", corsCfg.MaxAge))

	mux := setupRoutes(a, version, logger)
	handler := applyMiddleware(mux, logger, corsCfg, limiter)

	runServer(ctx, cancel, logger, a.Config.HTTPAddr, handler, version)
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}

// setupRoutes registers the news endpoints and the operational probes.
func setupRoutes(a *app.App, version string, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	news.Register(mux, a.Aggregate, news.Options{PlaceholderImage: a.Config.PlaceholderImageURL}, logger)

	mux.Handle("/health", hhttp.ReadOnly(&hhttp.HealthHandler{Cache: a.Store, Breakers: a, Version: version}))
	mux.Handle("/ready", hhttp.ReadOnly(&hhttp.ReadyHandler{Cache: a.Store}))
	mux.Handle("/live", hhttp.ReadOnly(&hhttp.LiveHandler{}))
	mux.Handle("/metrics", hhttp.ReadOnly(hhttp.MetricsHandler()))

	return mux
}

// applyMiddleware wraps the mux.
// Order: CORS → Request ID → Rate Limit → Tracing → Recovery → Logging → Metrics
func applyMiddleware(h http.Handler, logger *slog.Logger, corsCfg middleware.CORSConfig, limiter *middleware.RateLimiter) http.Handler {
	mws := []hhttp.Middleware{
		middleware.CORS(corsCfg, logger),
		requestid.Middleware,
	}
	if limiter != nil {
		mws = append(mws, limiter.Middleware)
	}
	mws = append(mws,
		tracing.Middleware,
		hhttp.Recover(logger),
		hhttp.Logging(logger),
		hhttp.MetricsMiddleware,
	)
	return hhttp.Chain(h, mws...)
}

// startRateLimitCleanup forgets idle clients until ctx is cancelled.
func startRateLimitCleanup(ctx context.Context, limiter *middleware.RateLimiter, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.CleanupExpired(); n > 0 {
				logger.Debug("rate limiter cleanup",
					slog.Int("removed", n),
					slog.Int("active", limiter.Clients()))
			}
		}
	}
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, addr string, handler http.Handler, version string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

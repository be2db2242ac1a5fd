package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"feedhub/internal/app"
	workerPkg "feedhub/internal/infra/worker"
	"feedhub/internal/observability/logging"
)

func main() {
	logger := logging.NewLoggerFromEnv()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("warm_schedule", workerConfig.WarmSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("warm_timeout", workerConfig.WarmTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	a, err := app.Build("worker", logger)
	if err != nil {
		logger.Error("failed to assemble aggregator", slog.Any("error", err))
		os.Exit(1)
	}
	defer a.Close()

	warmer := workerPkg.NewWarmer(a.Aggregate, *workerConfig, workerMetrics, logger)

	startMetricsServer(ctx, logger, workerConfig.MetricsPort, a.Aggregate, a)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, warmer, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	// 起動直後に一度温めておく
	warmer.RunOnce(ctx)

	scheduler, err := warmer.Start(ctx)
	if err != nil {
		logger.Error("failed to schedule warm job", slog.Any("error", err))
		os.Exit(1)
	}
	healthServer.SetReady(true)
	logger.Info("worker started")

	<-ctx.Done()
	logger.Info("worker shutting down")
	healthServer.SetReady(false)
	<-scheduler.Stop().Done()
	logger.Info("worker stopped")
}

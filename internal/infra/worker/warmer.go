package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"feedhub/internal/usecase/aggregate"
)

// Refresher rebuilds and stores the aggregate response.
type Refresher interface {
	Refresh(ctx context.Context) aggregate.Report
}

// Warmer runs Refresh on a cron schedule so readers hit a warm cache.
type Warmer struct {
	svc     Refresher
	cfg     WorkerConfig
	metrics *WorkerMetrics
	logger  *slog.Logger

	mu          sync.Mutex
	running     bool
	lastRun     time.Time
	lastSuccess time.Time
}

// NewWarmer returns a Warmer. metrics may be nil.
func NewWarmer(svc Refresher, cfg WorkerConfig, metrics *WorkerMetrics, logger *slog.Logger) *Warmer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Warmer{svc: svc, cfg: cfg, metrics: metrics, logger: logger}
}

// RunOnce performs one refresh bounded by WarmTimeout. Overlapping runs are
// skipped and reported as false.
func (w *Warmer) RunOnce(ctx context.Context) bool {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Warn("warm run skipped, previous run still in progress")
		w.record("skipped")
		return false
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	start := time.Now()
	w.record("started")
	w.logger.Info("warm started")

	ctx, cancel := context.WithTimeout(ctx, w.cfg.WarmTimeout)
	defer cancel()

	rep := w.svc.Refresh(ctx)
	elapsed := time.Since(start)

	w.mu.Lock()
	w.lastRun = start
	ok := rep.Result.Len() > 0
	if ok {
		w.lastSuccess = start
	}
	w.mu.Unlock()

	if w.metrics != nil {
		w.metrics.RecordDuration(elapsed.Seconds())
		w.metrics.RecordFailedSources(rep.Failed())
		if ok {
			w.metrics.RecordLastSuccess()
		}
	}

	if !ok {
		w.record("failure")
		w.logger.Error("warm produced no articles",
			slog.Int("sources", len(rep.Sources)),
			slog.Int("failed_sources", rep.Failed()),
			slog.Duration("duration", elapsed))
		return true
	}

	w.record("success")
	w.logger.Info("warm completed",
		slog.Int("articles", rep.Result.Len()),
		slog.Int("topics", len(rep.Result.Topics)),
		slog.Int("sources", len(rep.Sources)),
		slog.Int("failed_sources", rep.Failed()),
		slog.Duration("duration", elapsed))
	return true
}

// Start schedules RunOnce and returns the running scheduler. ctx is the parent
// of every run; the caller stops the scheduler.
func (w *Warmer) Start(ctx context.Context) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(w.cfg.Location()))
	if _, err := c.AddFunc(w.cfg.WarmSchedule, func() { w.RunOnce(ctx) }); err != nil {
		return nil, fmt.Errorf("schedule warm job %q: %w", w.cfg.WarmSchedule, err)
	}
	c.Start()
	w.logger.Info("warmer scheduled",
		slog.String("schedule", w.cfg.WarmSchedule),
		slog.String("timezone", w.cfg.Timezone))
	return c, nil
}

// LastRun returns the start time of the latest finished run and of the latest
// run that produced articles. Zero values mean none yet.
func (w *Warmer) LastRun() (run, success time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRun, w.lastSuccess
}

func (w *Warmer) record(status string) {
	if w.metrics != nil {
		w.metrics.RecordRun(status)
	}
}

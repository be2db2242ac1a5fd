package worker

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"feedhub/internal/pkg/config"
)

// WorkerMetrics embeds the config metrics of the "worker" component and adds
// warm-job series:
//   - worker_warm_runs_total{status}
//   - worker_warm_duration_seconds
//   - worker_warm_failed_sources_total
//   - worker_warm_last_success_timestamp
type WorkerMetrics struct {
	*config.ConfigMetrics

	WarmRunsTotal          *prometheus.CounterVec
	WarmDurationSeconds    prometheus.Histogram
	WarmFailedSourcesTotal prometheus.Counter
	WarmLastSuccess        prometheus.Gauge
}

var (
	workerMetricsOnce sync.Once
	workerMetrics     *WorkerMetrics
)

// NewWorkerMetrics returns the process-wide worker metrics, registering them
// on first use.
func NewWorkerMetrics() *WorkerMetrics {
	workerMetricsOnce.Do(func() {
		workerMetrics = newWorkerMetrics()
	})
	return workerMetrics
}

func newWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		WarmRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_warm_runs_total",
			Help: "Cache warm runs by status (started/success/failure)",
		}, []string{"status"}),

		WarmDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_warm_duration_seconds",
			Help:    "Duration of a cache warm run in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 15, 30, 60},
		}),

		WarmFailedSourcesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_warm_failed_sources_total",
			Help: "Sources that contributed nothing to a warm run",
		}),

		WarmLastSuccess: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_warm_last_success_timestamp",
			Help: "Unix timestamp of the last warm run that produced articles",
		}),
	}
}

// RecordRun increments the run counter for status.
func (m *WorkerMetrics) RecordRun(status string) {
	m.WarmRunsTotal.WithLabelValues(status).Inc()
}

// RecordDuration observes one run's duration in seconds.
func (m *WorkerMetrics) RecordDuration(seconds float64) {
	m.WarmDurationSeconds.Observe(seconds)
}

// RecordFailedSources adds n failed sources.
func (m *WorkerMetrics) RecordFailedSources(n int) {
	m.WarmFailedSourcesTotal.Add(float64(n))
}

// RecordLastSuccess stamps the current time.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.WarmLastSuccess.SetToCurrentTime()
}

package worker

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerMetrics_Singleton(t *testing.T) {
	m1 := NewWorkerMetrics()
	m2 := NewWorkerMetrics()

	require.NotNil(t, m1)
	assert.Same(t, m1, m2)
	assert.NotNil(t, m1.ConfigMetrics)
	assert.NotNil(t, m1.WarmRunsTotal)
	assert.NotNil(t, m1.WarmDurationSeconds)
	assert.NotNil(t, m1.WarmFailedSourcesTotal)
	assert.NotNil(t, m1.WarmLastSuccess)
}

func TestWorkerMetrics_Record(t *testing.T) {
	m := NewWorkerMetrics()

	success := testutil.ToFloat64(m.WarmRunsTotal.WithLabelValues("success"))
	failed := testutil.ToFloat64(m.WarmFailedSourcesTotal)

	m.RecordRun("success")
	m.RecordRun("success")
	m.RecordFailedSources(3)
	m.RecordFailedSources(0)
	m.RecordDuration(1.5)
	m.RecordLastSuccess()

	assert.Equal(t, success+2, testutil.ToFloat64(m.WarmRunsTotal.WithLabelValues("success")))
	assert.Equal(t, failed+3, testutil.ToFloat64(m.WarmFailedSourcesTotal))
	assert.Greater(t, testutil.ToFloat64(m.WarmLastSuccess), float64(0))
	assert.Equal(t, 1, testutil.CollectAndCount(m.WarmDurationSeconds))
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvString(t *testing.T) {
	t.Setenv("FH_TEST_STRING", "custom")
	assert.Equal(t, "custom", LoadEnvString("FH_TEST_STRING", "default"))

	t.Setenv("FH_TEST_STRING", "   ")
	assert.Equal(t, "default", LoadEnvString("FH_TEST_STRING", "default"))
	assert.Equal(t, "default", LoadEnvString("FH_TEST_UNSET", "default"))
}

func TestLoadEnvWithFallback(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         string
		wantFallback bool
	}{
		{name: "unset uses default", value: "", want: "*/4 * * * *"},
		{name: "valid value", value: "0 6 * * *", want: "0 6 * * *"},
		{name: "invalid falls back", value: "not a cron", want: "*/4 * * * *", wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FH_TEST_CRON", tt.value)

			got := LoadEnvWithFallback("FH_TEST_CRON", "*/4 * * * *", ValidateCronSchedule)

			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.wantFallback, got.FallbackApplied)
			if tt.wantFallback {
				assert.Len(t, got.Warnings, 1)
				assert.Contains(t, got.Warnings[0], "FH_TEST_CRON")
			} else {
				assert.Empty(t, got.Warnings)
			}
		})
	}
}

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         time.Duration
		wantFallback bool
	}{
		{name: "unset", value: "", want: 600 * time.Second},
		{name: "go syntax", value: "5m", want: 5 * time.Minute},
		{name: "bare seconds", value: "300", want: 300 * time.Second},
		{name: "garbage", value: "soon", want: 600 * time.Second, wantFallback: true},
		{name: "non-positive", value: "0s", want: 600 * time.Second, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FH_TEST_TTL", tt.value)

			got := LoadEnvDuration("FH_TEST_TTL", 600*time.Second, ValidatePositiveDuration)

			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.wantFallback, got.FallbackApplied)
		})
	}
}

func TestLoadEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         int
		wantFallback bool
	}{
		{name: "unset", value: "", want: 15},
		{name: "in range", value: "20", want: 20},
		{name: "out of range", value: "500", want: 15, wantFallback: true},
		{name: "not a number", value: "ten", want: 15, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FH_TEST_CAP", tt.value)

			got := LoadEnvInt("FH_TEST_CAP", 15, IntRange(1, 100))

			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.wantFallback, got.FallbackApplied)
		})
	}
}

func TestLoadEnvFloat(t *testing.T) {
	t.Setenv("FH_TEST_RPS", "2.5")
	assert.InDelta(t, 2.5, LoadEnvFloat("FH_TEST_RPS", 5, nil).Value, 0.0001)

	t.Setenv("FH_TEST_RPS", "fast")
	got := LoadEnvFloat("FH_TEST_RPS", 5, nil)
	assert.InDelta(t, 5.0, got.Value, 0.0001)
	assert.True(t, got.FallbackApplied)
}

func TestLoadEnvBool(t *testing.T) {
	t.Setenv("FH_TEST_BOOL", "false")
	assert.False(t, LoadEnvBool("FH_TEST_BOOL", true).Value)

	t.Setenv("FH_TEST_BOOL", "maybe")
	got := LoadEnvBool("FH_TEST_BOOL", true)
	assert.True(t, got.Value)
	assert.True(t, got.FallbackApplied)
}

func TestTracker_Apply(t *testing.T) {
	m := NewConfigMetrics("fhtest_tracker")
	tr := NewTracker(nil, m)

	t.Setenv("FH_TEST_TRACK", "-3")
	got := Apply(tr, "entry_cap", LoadEnvInt("FH_TEST_TRACK", 15, IntRange(1, 100)))
	tr.Finish()

	assert.Equal(t, 15, got)
	assert.True(t, tr.FallbackApplied())

	clean := NewTracker(nil, nil)
	assert.Equal(t, "x", Apply(clean, "name", Result[string]{Value: "x"}))
	assert.False(t, clean.FallbackApplied())
	clean.Finish()
}

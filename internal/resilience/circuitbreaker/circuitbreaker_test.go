package circuitbreaker

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func testConfig(timeout time.Duration) Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      2,
		Interval:         10 * time.Second,
		Timeout:          timeout,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func TestNew(t *testing.T) {
	cb := New(testConfig(time.Second))

	if cb == nil {
		t.Fatal("expected circuit breaker, got nil")
	}
	if cb.Name() != "test-circuit" {
		t.Errorf("expected name='test-circuit', got %q", cb.Name())
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected initial state=Closed, got %v", cb.State())
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb := New(testConfig(time.Second))

	result, err := cb.Execute(func() (interface{}, error) {
		return "success", nil
	})
	if err != nil || result != "success" {
		t.Errorf("expected (success, nil), got (%v, %v)", result, err)
	}

	testErr := errors.New("test error")
	result, err = cb.Execute(func() (interface{}, error) {
		return nil, testErr
	})
	if err != testErr {
		t.Errorf("expected error=%v, got %v", testErr, err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %v", result)
	}
}

func TestCircuitBreaker_TripsOpenAndNotifies(t *testing.T) {
	var transitions []string
	cb := New(testConfig(time.Second), func(name string, from, to gobreaker.State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	testErr := errors.New("test error")
	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, testErr
		})
	}

	if !cb.IsOpen() {
		t.Fatalf("expected state=Open after 5 failures, got %v", cb.State())
	}
	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("unexpected transitions: %v", transitions)
	}

	_, err := cb.Execute(func() (interface{}, error) {
		t.Error("function should not be called when circuit is open")
		return nil, nil
	})
	if !IsOpenError(err) {
		t.Errorf("expected open-state error, got %v", err)
	}
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := New(testConfig(100 * time.Millisecond))

	testErr := errors.New("test error")
	for i := 0; i < 6; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, testErr
		})
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("circuit should be open, got %v", cb.State())
	}

	// タイムアウト後はhalf-openになる
	time.Sleep(150 * time.Millisecond)

	if _, err := cb.Execute(func() (interface{}, error) { return "ok", nil }); err != nil {
		t.Errorf("expected success in half-open state, got %v", err)
	}
	if cb.State() == gobreaker.StateOpen {
		t.Errorf("circuit should not be open after successful half-open request")
	}
}

func TestCircuitBreaker_MinRequests(t *testing.T) {
	cfg := testConfig(time.Second)
	cfg.MinRequests = 10
	cb := New(cfg)

	testErr := errors.New("test error")
	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, testErr
		})
	}

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected state=Closed (below MinRequests), got %v", cb.State())
	}
}

func TestPresetConfigs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "default", cfg: DefaultConfig("a")},
		{name: "feed fetch", cfg: FeedFetchConfig("a")},
		{name: "image lookup", cfg: ImageLookupConfig("a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cfg.Name != "a" {
				t.Errorf("expected Name='a', got %q", tt.cfg.Name)
			}
			if tt.cfg.MaxRequests == 0 || tt.cfg.MinRequests == 0 {
				t.Errorf("request limits must be positive: %+v", tt.cfg)
			}
			if tt.cfg.FailureThreshold <= 0 || tt.cfg.FailureThreshold > 1 {
				t.Errorf("FailureThreshold out of range: %f", tt.cfg.FailureThreshold)
			}
		})
	}
}

func TestCircuitBreaker_IgnoredErrorsDoNotTrip(t *testing.T) {
	errNotFound := errors.New("not found")
	cfg := testConfig(time.Second)
	cfg.IsSuccessful = IgnoreErrors(errNotFound)
	cb := New(cfg)

	for i := 0; i < 10; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, fmt.Errorf("lookup: %w", errNotFound)
		})
	}

	if cb.IsOpen() {
		t.Error("expected breaker to stay closed for ignored errors")
	}
}

package breaker

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestBreaker(maxFailures, halfOpen int, timeout time.Duration) (*CircuitBreaker, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := New(&Config{MaxFailures: maxFailures, Timeout: timeout, HalfOpenMaxCalls: halfOpen})
	cb.now = c.now
	return cb, c
}

func fail() error { return fmt.Errorf("operation failed") }
func ok() error   { return nil }

func TestCircuitBreakerBasicFlow(t *testing.T) {
	cb, _ := newTestBreaker(3, 2, time.Second)

	if cb.State() != StateClosed {
		t.Errorf("Expected initial state to be Closed, got %v", cb.State())
	}

	if err := cb.Execute(ok); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected state to remain Closed after success, got %v", cb.State())
	}
}

func TestCircuitBreakerFailureTransition(t *testing.T) {
	cb, _ := newTestBreaker(2, 2, time.Second)

	if err := cb.Execute(fail); err == nil {
		t.Error("Expected error, got nil")
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected state to be Closed after first failure, got %v", cb.State())
	}

	if err := cb.Execute(fail); err == nil {
		t.Error("Expected error, got nil")
	}
	if cb.State() != StateOpen {
		t.Errorf("Expected state to be Open after reaching failure threshold, got %v", cb.State())
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(2, 1, time.Second)

	_ = cb.Execute(fail)
	_ = cb.Execute(ok)
	_ = cb.Execute(fail)

	if cb.State() != StateClosed {
		t.Errorf("Expected non-consecutive failures to keep breaker Closed, got %v", cb.State())
	}
}

func TestCircuitBreakerOpenState(t *testing.T) {
	cb, _ := newTestBreaker(1, 2, time.Second)
	_ = cb.Execute(fail)

	err := cb.Execute(func() error {
		t.Error("Operation should not be executed when circuit is open")
		return nil
	})

	if !errors.Is(err, ErrOpen) {
		t.Errorf("Expected ErrOpen, got %v", err)
	}
}

func TestCircuitBreakerHalfOpenRecovers(t *testing.T) {
	cb, clk := newTestBreaker(1, 2, time.Second)
	_ = cb.Execute(fail)

	clk.t = clk.t.Add(time.Second)

	executed := false
	if err := cb.Execute(func() error { executed = true; return nil }); err != nil {
		t.Errorf("Expected trial call to run, got %v", err)
	}
	if !executed {
		t.Error("Expected trial call to execute after timeout")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("Expected Half-Open after first trial call, got %v", cb.State())
	}

	if err := cb.Execute(ok); err != nil {
		t.Errorf("Expected second trial call to run, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected Closed after successful trial calls, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, clk := newTestBreaker(1, 2, time.Second)
	_ = cb.Execute(fail)

	clk.t = clk.t.Add(time.Second)
	_ = cb.Execute(fail)

	if cb.State() != StateOpen {
		t.Errorf("Expected Open after failed trial call, got %v", cb.State())
	}
	if err := cb.Execute(ok); !errors.Is(err, ErrOpen) {
		t.Errorf("Expected ErrOpen immediately after failed trial call, got %v", err)
	}
}

func TestCircuitBreakerStats(t *testing.T) {
	cb, _ := newTestBreaker(3, 1, 30*time.Second)
	_ = cb.Execute(fail)

	stats := cb.Stats()
	if stats["state"] != "closed" {
		t.Errorf("Expected closed state in stats, got %v", stats["state"])
	}
	if stats["failure_count"] != 1 {
		t.Errorf("Expected failure_count 1, got %v", stats["failure_count"])
	}
	if stats["timeout_seconds"] != 30.0 {
		t.Errorf("Expected timeout_seconds 30, got %v", stats["timeout_seconds"])
	}
}

func TestNewWithNilConfigUsesDefaults(t *testing.T) {
	cb := New(nil)
	if cb.maxFailures != 5 || cb.halfOpenMaxCalls != 3 || cb.timeout != 30*time.Second {
		t.Errorf("Unexpected defaults: %+v", cb.Stats())
	}
}

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteRetriesRetryableFailure(t *testing.T) {
	errTemp := errors.New("temporary")
	exec := NewExecutor(Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Retryable:      func(err error) bool { return errors.Is(err, errTemp) },
	})

	attempts := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	errPermanent := errors.New("permanent")
	exec := NewExecutor(Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		Retryable:      func(error) bool { return false },
	})

	attempts := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	errDown := errors.New("down")
	exec := NewExecutor(Policy{
		MaxAttempts:         1,
		InitialBackoff:      time.Millisecond,
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  50 * time.Millisecond,
	})

	for i := 0; i < 3; i++ {
		_ = exec.Execute(context.Background(), "op", func(context.Context) error {
			return errDown
		})
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatal("call must not reach the backend while the circuit is open")
		return nil
	})
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open-circuit error, got %v", err)
	}
}

func TestExecuteStopsOnContextCancel(t *testing.T) {
	errTemp := errors.New("temporary")
	exec := NewExecutor(Policy{
		MaxAttempts:    10,
		InitialBackoff: 50 * time.Millisecond,
		Retryable:      func(error) bool { return true },
	})

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := exec.Execute(ctx, "op", func(context.Context) error {
		attempts++
		return errTemp
	})
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if attempts > 2 {
		t.Fatalf("expected retries to stop on cancel, got %d attempts", attempts)
	}
}

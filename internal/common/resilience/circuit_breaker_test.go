package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AlibekovAA/social-hub/internal/common/clock"
	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
)

func newTestBreaker(c clock.Clock) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Threshold:  2,
		Timeout:    time.Second,
		ResetAfter: time.Minute,
		Clock:      c,
	})
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	mc := clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cb := newTestBreaker(mc)
	boom := errors.New("boom")
	fail := func(context.Context) error { return boom }

	for i := 0; i < 2; i++ {
		if err := cb.Call(context.Background(), fail); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}

	called := false
	err := cb.Call(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, commonerrors.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("fn must not run while the circuit is open")
	}

	mc.Advance(2 * time.Minute)
	if err := cb.Call(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Errorf("circuit should close after reset window, got %v", err)
	}
}

func TestCircuitBreaker_DomainErrorsDoNotTrip(t *testing.T) {
	cb := newTestBreaker(clock.NewMockClock(time.Now()))
	notFound := func(context.Context) error { return commonerrors.ErrUserNotFound }

	for i := 0; i < 5; i++ {
		_ = cb.Call(context.Background(), notFound)
	}
	if cb.IsOpen() {
		t.Error("domain errors should not open the circuit")
	}
}

func TestCircuitBreaker_Fallback(t *testing.T) {
	cb := newTestBreaker(clock.NewMockClock(time.Now()))
	usedFallback := false

	err := cb.CallWithFallback(context.Background(),
		func(context.Context) error { return errors.New("down") },
		func() error {
			usedFallback = true
			return nil
		},
	)
	if err != nil || !usedFallback {
		t.Errorf("expected fallback result, err=%v used=%v", err, usedFallback)
	}
}

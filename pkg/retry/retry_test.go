package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("connection refused")

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	var retries []int

	cfg := fastConfig(5)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		retries = append(retries, attempt)
	}

	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	}, cfg)

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
		t.Errorf("unexpected retry callbacks: %v", retries)
	}
}

func TestDo_ReturnsLastError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return errTransient
	}, fastConfig(3))

	if !errors.Is(err, errTransient) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	authErr := errors.New("password authentication failed")

	err := Do(context.Background(), func() error {
		calls++
		return Permanent(authErr)
	}, fastConfig(5))

	if err != authErr {
		t.Errorf("expected unwrapped permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetryIf(t *testing.T) {
	calls := 0
	cfg := fastConfig(5)
	cfg.RetryIf = RetryIfNotContext

	err := Do(context.Background(), func() error {
		calls++
		return context.DeadlineExceeded
	}, cfg)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := Config{MaxAttempts: 10, InitialDelay: time.Hour, MaxDelay: time.Hour}
	cfg.OnRetry = func(int, error, time.Duration) { cancel() }

	start := time.Now()
	err := Do(ctx, func() error { return errTransient }, cfg)

	if !errors.Is(err, errTransient) {
		t.Errorf("expected last operation error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Do did not stop on context cancel")
	}
}

func TestDo_ContextCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Do(ctx, func() error {
		called = true
		return nil
	}, fastConfig(3))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("operation must not run with canceled context")
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errTransient
		}
		return 42, nil
	}, fastConfig(3))

	if err != nil || got != 42 {
		t.Errorf("expected 42, got %d (%v)", got, err)
	}
}

func TestConfig_CalculateDelay(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	cfg.validate()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{5, time.Second},
	}

	for _, tt := range tests {
		if got := cfg.calculateDelay(tt.attempt); got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestConfig_Jitter(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2, JitterFactor: 0.2}
	cfg.validate()

	for i := 0; i < 100; i++ {
		d := cfg.calculateDelay(0)
		if d < 80*time.Millisecond || d > 120*time.Millisecond {
			t.Fatalf("delay %v outside jitter bounds", d)
		}
	}
}

func TestConfig_ValidateDefaults(t *testing.T) {
	cfg := Config{JitterFactor: 5}
	cfg.validate()

	if cfg.MaxAttempts != 1 {
		t.Errorf("expected MaxAttempts=1, got %d", cfg.MaxAttempts)
	}
	if cfg.Multiplier != 2 {
		t.Errorf("expected Multiplier=2, got %v", cfg.Multiplier)
	}
	if cfg.JitterFactor != 1 {
		t.Errorf("expected JitterFactor=1, got %v", cfg.JitterFactor)
	}
}

func TestDatabaseConfig(t *testing.T) {
	cfg := DatabaseConfig(10)
	if cfg.MaxAttempts != 10 {
		t.Errorf("expected 10 attempts, got %d", cfg.MaxAttempts)
	}
	if cfg.InitialDelay <= 0 || cfg.MaxDelay < cfg.InitialDelay {
		t.Errorf("invalid delays: %+v", cfg)
	}
}

func TestPermanent(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}

	err := Permanent(errTransient)
	if !IsPermanent(err) {
		t.Error("expected permanent error")
	}
	if !errors.Is(err, errTransient) {
		t.Error("permanent error should unwrap to original")
	}
	if err.Error() != errTransient.Error() {
		t.Errorf("unexpected message %q", err.Error())
	}
	if IsPermanent(errTransient) {
		t.Error("plain error must not be permanent")
	}
}

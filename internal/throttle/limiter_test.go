package throttle

import (
	"context"
	"math"
	"testing"
	"time"
)

// fakeClock drives the limiter deterministically: sleeps advance the
// clock instead of blocking.
type fakeClock struct {
	t time.Time
}

func newFakeLimiter(cfg Config) (*RateLimiter, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)}
	r := NewRateLimiter(cfg)
	r.now = func() time.Time { return clk.t }
	r.sleep = func(ctx context.Context, d time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		clk.t = clk.t.Add(d)
		return nil
	}
	r.lastRefill = clk.t
	return r, clk
}

func TestAcquire_BurstThenRefillWait(t *testing.T) {
	// 60 calls/min = 1 token/sec, burst 5, no min delay friction.
	r, _ := newFakeLimiter(Config{CallsPerMinute: 60, BurstSize: 5, MinDelayMs: 1})
	ctx := context.Background()

	// The full bucket (65 tokens) drains with only the 1 ms min delay
	// between grants.
	for i := 0; i < 65; i++ {
		if _, err := r.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}

	// The next grant has to wait for the refill rate to produce a
	// token: about one second at 1 token/sec.
	waited, err := r.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if waited < 900*time.Millisecond || waited > 1100*time.Millisecond {
		t.Errorf("expected ~1s refill wait, got %v", waited)
	}
}

func TestAcquire_MinDelay(t *testing.T) {
	r, _ := newFakeLimiter(Config{CallsPerMinute: 600, BurstSize: 10, MinDelayMs: 500})
	ctx := context.Background()

	if _, err := r.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	waited, err := r.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// Plenty of tokens; the wait is purely the inter-call delay.
	if waited != 500*time.Millisecond {
		t.Errorf("expected 500ms min-delay wait, got %v", waited)
	}
}

func TestReport429_BackoffGrowsAndCaps(t *testing.T) {
	r, _ := newFakeLimiter(Config{CallsPerMinute: 60, BurstSize: 5, MinDelayMs: 1, BackoffCapSec: 60})
	ctx := context.Background()

	r.Report429()
	if r.backoff != time.Second {
		t.Errorf("first 429 should set 1s back-off, got %v", r.backoff)
	}
	if r.Tokens() != 0 {
		t.Errorf("429 should drain the bucket, got %.2f tokens", r.Tokens())
	}

	// The next acquire waits out the back-off first, then the refill
	// for a token (the bucket was zeroed).
	waited, err := r.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if waited < time.Second {
		t.Errorf("back-off must not be bypassed, waited only %v", waited)
	}

	// Consecutive 429s double up to the cap.
	for i := 0; i < 10; i++ {
		r.Report429()
	}
	if r.backoff != 60*time.Second {
		t.Errorf("back-off should cap at 60s, got %v", r.backoff)
	}

	r.ReportSuccess()
	if r.backoff != 0 {
		t.Errorf("success should reset back-off, got %v", r.backoff)
	}
}

func TestAcquire_ContextCancellation(t *testing.T) {
	r, _ := newFakeLimiter(Config{CallsPerMinute: 60, BurstSize: 5, MinDelayMs: 1})

	r.Report429()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Acquire(ctx); err == nil {
		t.Fatal("expected context error while backed off")
	}
}

func TestRefill_CapsAtMax(t *testing.T) {
	r, clk := newFakeLimiter(Config{CallsPerMinute: 60, BurstSize: 5, MinDelayMs: 1})

	if _, err := r.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	clk.t = clk.t.Add(time.Hour)
	if got, want := r.Tokens(), 65.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("expected refill to cap at %.0f, got %.2f", want, got)
	}
}

package throttle

import (
	"context"
	"sync"
	"time"
)

// Config holds the per-channel throttle settings.
type Config struct {
	CallsPerMinute float64 `yaml:"calls_per_minute"`
	BurstSize      float64 `yaml:"burst_size"`
	MinDelayMs     int     `yaml:"min_delay_ms"`
	BackoffFactor  float64 `yaml:"backoff_factor"`
	BackoffCapSec  float64 `yaml:"backoff_cap_sec"`
}

// RateLimiter is a token bucket with a hard minimum inter-call delay
// and a 429-driven exponential back-off. One instance guards one
// upstream channel; instances share no state.
//
// Acquire checks, in order: active back-off window, minimum inter-call
// delay, token availability. The ordering matters: a back-off set by a
// 429 must never be bypassed by available tokens.
type RateLimiter struct {
	cfg      Config
	maxTok   float64
	minDelay time.Duration

	mu           sync.Mutex
	tokens       float64
	lastRefill   time.Time
	lastCall     time.Time
	backoff      time.Duration
	backoffUntil time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewRateLimiter builds a limiter with the bucket full. Defaults:
// 30 calls/min, burst 5, 500 ms min delay, back-off ×2 capped at 60 s.
func NewRateLimiter(cfg Config) *RateLimiter {
	if cfg.CallsPerMinute == 0 {
		cfg.CallsPerMinute = 30
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 5
	}
	if cfg.MinDelayMs == 0 {
		cfg.MinDelayMs = 500
	}
	if cfg.BackoffFactor == 0 {
		cfg.BackoffFactor = 2.0
	}
	if cfg.BackoffCapSec == 0 {
		cfg.BackoffCapSec = 60
	}
	r := &RateLimiter{
		cfg:      cfg,
		maxTok:   cfg.CallsPerMinute + cfg.BurstSize,
		minDelay: time.Duration(cfg.MinDelayMs) * time.Millisecond,
		now:      time.Now,
		sleep:    sleepCtx,
	}
	r.tokens = r.maxTok
	r.lastRefill = r.now()
	return r
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Acquire blocks until a call is permitted, consuming one token, and
// returns the total time waited. It honors ctx cancellation while
// sleeping; on cancellation no token is consumed.
func (r *RateLimiter) Acquire(ctx context.Context) (time.Duration, error) {
	var waited time.Duration
	for {
		r.mu.Lock()
		r.refill()

		wait, granted := r.nextWait()
		if granted {
			r.tokens--
			r.lastCall = r.now()
			r.mu.Unlock()
			return waited, nil
		}
		r.mu.Unlock()

		if err := r.sleep(ctx, wait); err != nil {
			return waited, err
		}
		waited += wait
	}
}

// nextWait returns the required sleep before re-checking, or granted
// when the call may proceed now. Caller holds the lock.
func (r *RateLimiter) nextWait() (time.Duration, bool) {
	now := r.now()

	if now.Before(r.backoffUntil) {
		return r.backoffUntil.Sub(now), false
	}
	if !r.lastCall.IsZero() {
		if since := now.Sub(r.lastCall); since < r.minDelay {
			return r.minDelay - since, false
		}
	}
	if r.tokens < 1 {
		perSecond := r.cfg.CallsPerMinute / 60
		need := (1 - r.tokens) / perSecond
		return time.Duration(need * float64(time.Second)), false
	}
	return 0, true
}

// refill accrues tokens since the last check. Caller holds the lock.
func (r *RateLimiter) refill() {
	now := r.now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	r.tokens += elapsed * r.cfg.CallsPerMinute / 60
	if r.tokens > r.maxTok {
		r.tokens = r.maxTok
	}
	r.lastRefill = now
}

// Report429 records a rate-limit response: the back-off duration starts
// at one second and multiplies on each consecutive 429 up to the cap,
// and the bucket is drained so nothing slips through during back-off.
func (r *RateLimiter) Report429() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backoff == 0 {
		r.backoff = time.Second
	} else {
		r.backoff = time.Duration(float64(r.backoff) * r.cfg.BackoffFactor)
	}
	limit := time.Duration(r.cfg.BackoffCapSec * float64(time.Second))
	if r.backoff > limit {
		r.backoff = limit
	}
	r.backoffUntil = r.now().Add(r.backoff)
	r.tokens = 0
}

// ReportSuccess clears any accumulated back-off.
func (r *RateLimiter) ReportSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backoff = 0
	r.backoffUntil = time.Time{}
}

// Tokens reports the current token count after a refill. Test hook.
func (r *RateLimiter) Tokens() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return r.tokens
}

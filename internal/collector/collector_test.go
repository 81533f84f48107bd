package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"PositionSentinel/internal/model"
	"PositionSentinel/internal/throttle"
)

func TestCollect_DerivesTechnicals(t *testing.T) {
	fetcher := &MockFetcher{
		Quote: model.Quote{Price: 100, Volume: 2_000_000, DayHigh: 101, DayLow: 99, PrevClose: 99.5},
	}
	c := NewCollector(fetcher, nil)

	quote, tech, err := c.Collect(context.Background(), "NVDA")
	if err != nil {
		t.Fatal(err)
	}
	if quote.Symbol != "NVDA" || quote.Price != 100 {
		t.Errorf("unexpected quote %+v", quote)
	}
	if tech.EMA21 <= 0 || tech.MA50 <= 0 || tech.MA200 <= 0 || tech.MA10Week <= 0 {
		t.Errorf("expected moving averages from mock history, got %+v", tech)
	}
	if tech.AvgVolume50 != 1_000_000 {
		t.Errorf("expected 1M average volume, got %d", tech.AvgVolume50)
	}
	if tech.UpDownVolumeRatio <= 0 {
		t.Errorf("expected positive up/down ratio, got %.2f", tech.UpDownVolumeRatio)
	}
}

func TestCollect_QuoteFailureFails(t *testing.T) {
	fetcher := &MockFetcher{Err: errors.New("upstream down")}
	c := NewCollector(fetcher, nil)

	if _, _, err := c.Collect(context.Background(), "NVDA"); err == nil {
		t.Fatal("expected error when the quote fetch fails")
	}
}

func TestCollect_FeedsLimiterOn429(t *testing.T) {
	fetcher := &MockFetcher{Err: fmt.Errorf("quote: %w", ErrRateLimited)}
	limiter := throttle.NewRateLimiter(throttle.Config{CallsPerMinute: 6000, BurstSize: 10, MinDelayMs: 1})
	c := NewCollector(fetcher, limiter)

	if _, _, err := c.Collect(context.Background(), "NVDA"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate-limited error, got %v", err)
	}
	// The limiter must have been told: bucket drained for the back-off.
	if tok := limiter.Tokens(); tok > 1 {
		t.Errorf("expected drained bucket after 429, got %.2f tokens", tok)
	}
}

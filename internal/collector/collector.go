package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"PositionSentinel/internal/calculator"
	"PositionSentinel/internal/model"
	"PositionSentinel/internal/throttle"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Quote      model.Quote
	DailyData  []model.OHLCV
	WeeklyData []model.OHLCV
	Err        error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ string, days int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Quote.Price, days), nil
}

func (m *MockFetcher) FetchWeeklyBars(_ string, weeks int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.WeeklyData != nil {
		return m.WeeklyData, nil
	}
	return generateMockBars(m.Quote.Price, weeks), nil
}

func (m *MockFetcher) FetchQuote(symbol string) (model.Quote, error) {
	if m.Err != nil {
		return model.Quote{}, m.Err
	}
	q := m.Quote
	q.Symbol = symbol
	return q, nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   time.Now().AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches market data for one symbol at a time and derives
// the indicators the position checks need. Every upstream call goes
// through the channel's rate limiter, and the limiter is fed the
// outcome so 429 back-off kicks in across symbols.
type Collector struct {
	Fetcher Fetcher
	Limiter *throttle.RateLimiter
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, limiter *throttle.RateLimiter) *Collector {
	return &Collector{Fetcher: fetcher, Limiter: limiter}
}

func (c *Collector) guarded(ctx context.Context, call func() error) error {
	if c.Limiter != nil {
		if _, err := c.Limiter.Acquire(ctx); err != nil {
			return err
		}
	}
	err := call()
	if c.Limiter != nil {
		if errors.Is(err, ErrRateLimited) {
			c.Limiter.Report429()
		} else {
			c.Limiter.ReportSuccess()
		}
	}
	return err
}

// Collect fetches a live quote plus enough daily and weekly history to
// compute the moving averages and volume statistics. Individual
// indicator failures degrade to zero values with a warning; a failed
// quote fetch fails the whole collect.
func (c *Collector) Collect(ctx context.Context, symbol string) (model.Quote, model.Technicals, error) {
	var quote model.Quote
	if err := c.guarded(ctx, func() error {
		var err error
		quote, err = c.Fetcher.FetchQuote(symbol)
		return err
	}); err != nil {
		return model.Quote{}, model.Technicals{}, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}

	var dailyBars, weeklyBars []model.OHLCV
	if err := c.guarded(ctx, func() error {
		var err error
		dailyBars, err = c.Fetcher.FetchDailyBars(symbol, 260)
		return err
	}); err != nil {
		return model.Quote{}, model.Technicals{}, fmt.Errorf("fetch daily bars %s: %w", symbol, err)
	}
	if err := c.guarded(ctx, func() error {
		var err error
		weeklyBars, err = c.Fetcher.FetchWeeklyBars(symbol, 60)
		return err
	}); err != nil {
		log.Printf("[WARN] weekly bars fetch failed for %s: %v, aggregating daily", symbol, err)
		weeklyBars = aggregateDailyToWeekly(dailyBars)
	}

	var tech model.Technicals
	if ema, err := calculator.CalculateEMA21(dailyBars); err != nil {
		log.Printf("[WARN] EMA21 calculation failed for %s: %v", symbol, err)
	} else {
		tech.EMA21 = ema
	}
	if ma, err := calculator.CalculateMA50(dailyBars); err != nil {
		log.Printf("[WARN] MA50 calculation failed for %s: %v", symbol, err)
	} else {
		tech.MA50 = ma
	}
	if ma, err := calculator.CalculateMA200(dailyBars); err != nil {
		log.Printf("[WARN] MA200 calculation failed for %s: %v", symbol, err)
	} else {
		tech.MA200 = ma
	}
	if ma, err := calculator.CalculateMA10w(weeklyBars); err != nil {
		log.Printf("[WARN] MA10w calculation failed for %s: %v", symbol, err)
	} else {
		tech.MA10Week = ma
	}
	if av, err := calculator.CalculateAvgVolume50(dailyBars); err != nil {
		log.Printf("[WARN] average volume calculation failed for %s: %v", symbol, err)
	} else {
		tech.AvgVolume50 = av
	}
	if ratio, err := calculator.CalculateUpDownVolumeRatio(dailyBars, 50); err != nil {
		log.Printf("[WARN] up/down volume ratio failed for %s: %v", symbol, err)
		tech.UpDownVolumeRatio = 1.0
	} else {
		tech.UpDownVolumeRatio = ratio
	}

	return quote, tech, nil
}

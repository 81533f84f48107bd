package collector

import (
	"errors"

	"PositionSentinel/internal/model"
)

// ErrRateLimited marks an upstream 429 so the caller can feed the
// channel's rate limiter.
var ErrRateLimited = errors.New("rate limited by upstream")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchDailyBars(symbol string, days int) ([]model.OHLCV, error)
	FetchWeeklyBars(symbol string, weeks int) ([]model.OHLCV, error)
	FetchQuote(symbol string) (model.Quote, error)
	Name() string
}

package calculator

import (
	"errors"
	"math"

	"PositionSentinel/internal/model"
)

// Calculate52WeekRange scans the most recent 252 trading days and returns the high and low.
func Calculate52WeekRange(dailyBars []model.OHLCV) (high, low float64, err error) {
	if len(dailyBars) == 0 {
		return 0, 0, errors.New("no daily bars provided")
	}
	n := len(dailyBars)
	start := n - 252
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if dailyBars[i].High > high {
			high = dailyBars[i].High
		}
		if dailyBars[i].Low < low {
			low = dailyBars[i].Low
		}
	}
	return high, low, nil
}

// RangePosition returns where price sits within the [low, high] band,
// clamped to 0.0~1.0. A flat band counts as the midpoint. Used to judge
// whether a day closed in the upper half of its range.
func RangePosition(price, high, low float64) float64 {
	if high <= low {
		return 0.5
	}
	pos := (price - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}

// BaseDepthPct returns the percentage depth of a base: the drop from
// the range high to the range low.
func BaseDepthPct(high, low float64) (float64, error) {
	if high <= 0 || low <= 0 || high < low {
		return 0, errors.New("invalid range bounds")
	}
	return (high - low) / high * 100, nil
}

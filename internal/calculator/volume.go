package calculator

import (
	"errors"

	"PositionSentinel/internal/model"
)

// CalculateAvgVolume returns the average volume over the most recent
// period daily bars.
func CalculateAvgVolume(dailyBars []model.OHLCV, period int) (int64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(dailyBars) < period {
		return 0, errors.New("not enough data for average volume")
	}
	sum := 0.0
	for i := len(dailyBars) - period; i < len(dailyBars); i++ {
		sum += dailyBars[i].Volume
	}
	return int64(sum / float64(period)), nil
}

// CalculateAvgVolume50 returns the 50-day average volume from daily bars.
func CalculateAvgVolume50(dailyBars []model.OHLCV) (int64, error) {
	return CalculateAvgVolume(dailyBars, 50)
}

// CalculateUpDownVolumeRatio returns total volume on up days divided by
// total volume on down days over the most recent period bars. A ratio
// above 1.0 signals accumulation, below 1.0 distribution. Flat days are
// ignored. With no down-day volume to divide by the ratio saturates
// at 99.0 (1.0 when there was no volume at all).
func CalculateUpDownVolumeRatio(dailyBars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(dailyBars) < 2 {
		return 0, errors.New("not enough data for up/down volume ratio")
	}
	n := len(dailyBars)
	start := n - period
	if start < 1 {
		start = 1
	}
	var up, down float64
	for i := start; i < n; i++ {
		switch {
		case dailyBars[i].Close > dailyBars[i-1].Close:
			up += dailyBars[i].Volume
		case dailyBars[i].Close < dailyBars[i-1].Close:
			down += dailyBars[i].Volume
		}
	}
	if down == 0 {
		if up == 0 {
			return 1.0, nil
		}
		return 99.0, nil
	}
	return up / down, nil
}

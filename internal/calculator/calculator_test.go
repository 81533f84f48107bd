package calculator

import (
	"math"
	"testing"

	"PositionSentinel/internal/model"
)

func barsFromCloses(closes []float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1_000_000}
	}
	return bars
}

func TestCalculateSMA(t *testing.T) {
	tests := []struct {
		name    string
		prices  []float64
		period  int
		want    float64
		wantErr bool
	}{
		{"simple average", []float64{1, 2, 3, 4, 5}, 5, 3, false},
		{"uses most recent window", []float64{100, 1, 2, 3}, 3, 2, false},
		{"not enough data", []float64{1, 2}, 3, 0, true},
		{"zero period", []float64{1, 2, 3}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateSMA(tt.prices, tt.period)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestCalculateEMA(t *testing.T) {
	// Constant series: EMA equals the constant.
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 50
	}
	got, err := CalculateEMA(prices, 21)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-50) > 1e-9 {
		t.Errorf("constant series EMA should be 50, got %.4f", got)
	}

	// A rising series keeps the EMA below the last price but above the SMA.
	rising := make([]float64, 40)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	ema, _ := CalculateEMA(rising, 21)
	sma, _ := CalculateSMA(rising, 21)
	if !(ema > sma && ema < rising[len(rising)-1]) {
		t.Errorf("expected sma < ema < last, got sma %.2f ema %.2f last %.2f", sma, ema, rising[len(rising)-1])
	}

	if _, err := CalculateEMA([]float64{1, 2}, 21); err == nil {
		t.Error("expected error for short series")
	}
}

func TestRangePosition(t *testing.T) {
	tests := []struct {
		name             string
		price, high, low float64
		want             float64
	}{
		{"top of range", 110, 110, 100, 1.0},
		{"bottom of range", 100, 110, 100, 0.0},
		{"upper half", 107, 110, 100, 0.7},
		{"flat range midpoint", 105, 105, 105, 0.5},
		{"clamped above", 120, 110, 100, 1.0},
		{"clamped below", 90, 110, 100, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RangePosition(tt.price, tt.high, tt.low); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestBaseDepthPct(t *testing.T) {
	got, err := BaseDepthPct(100, 75)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-25) > 1e-9 {
		t.Errorf("expected 25%% depth, got %.4f", got)
	}
	if _, err := BaseDepthPct(75, 100); err == nil {
		t.Error("expected error when high < low")
	}
}

func TestCalculateAvgVolume50(t *testing.T) {
	bars := barsFromCloses(make([]float64, 60))
	for i := range bars {
		bars[i].Volume = float64(i + 1)
	}
	got, err := CalculateAvgVolume50(bars)
	if err != nil {
		t.Fatal(err)
	}
	// Volumes 11..60 average to 35.5, truncated by integer division.
	if got != 35 {
		t.Errorf("expected 35, got %d", got)
	}

	if _, err := CalculateAvgVolume50(bars[:10]); err == nil {
		t.Error("expected error for short history")
	}
}

func TestCalculateUpDownVolumeRatio(t *testing.T) {
	// Alternating up/down closes with heavier up-day volume.
	bars := []model.OHLCV{
		{Close: 100, Volume: 1_000_000},
		{Close: 101, Volume: 2_000_000}, // up
		{Close: 100, Volume: 1_000_000}, // down
		{Close: 101, Volume: 2_000_000}, // up
		{Close: 100, Volume: 1_000_000}, // down
		{Close: 100, Volume: 5_000_000}, // flat, ignored
	}
	got, err := CalculateUpDownVolumeRatio(bars, 50)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-2.0) > 1e-9 {
		t.Errorf("expected 2.0, got %.4f", got)
	}

	// No down days: the ratio saturates.
	upOnly := []model.OHLCV{
		{Close: 100, Volume: 1_000_000},
		{Close: 101, Volume: 1_000_000},
		{Close: 102, Volume: 1_000_000},
	}
	got, err = CalculateUpDownVolumeRatio(upOnly, 50)
	if err != nil {
		t.Fatal(err)
	}
	if got != 99.0 {
		t.Errorf("expected saturation at 99.0, got %.4f", got)
	}
}

func TestCalculate52WeekRange(t *testing.T) {
	bars := barsFromCloses([]float64{100, 150, 120})
	high, low, err := Calculate52WeekRange(bars)
	if err != nil {
		t.Fatal(err)
	}
	if high != 151 || low != 99 {
		t.Errorf("expected 151/99, got %.2f/%.2f", high, low)
	}

	if _, _, err := Calculate52WeekRange(nil); err == nil {
		t.Error("expected error for empty history")
	}
}

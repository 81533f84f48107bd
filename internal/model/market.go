package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Quote is the live per-symbol reading supplied by the poller each cycle.
type Quote struct {
	Symbol    string
	Price     float64
	Volume    int64
	DayHigh   float64
	DayLow    float64
	PrevClose float64
	FetchedAt time.Time
}

// Technicals holds the indicator values derived from daily bars.
type Technicals struct {
	EMA21             float64
	MA50              float64
	MA200             float64
	MA10Week          float64
	AvgVolume50       int64
	UpDownVolumeRatio float64
}

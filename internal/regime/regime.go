package regime

import (
	"context"
	"fmt"
	"log"
	"sync"

	"PositionSentinel/internal/collector"
	"PositionSentinel/internal/model"
)

// Regime labels. Suppressing regimes block new-money entry signals.
const (
	ConfirmedUptrend     = "CONFIRMED_UPTREND"
	UptrendUnderPressure = "UPTREND_UNDER_PRESSURE"
	Correction           = "CORRECTION"
)

// Classify derives the market regime label from the index's position
// against its moving averages and recent distribution pressure.
// A close below the 200-day line, or below the 50-day line with weak
// up/down volume, is treated as a correction.
func Classify(price float64, tech model.Technicals) string {
	if price <= 0 || tech.MA50 <= 0 || tech.MA200 <= 0 {
		return ConfirmedUptrend
	}

	switch {
	case price < tech.MA200:
		return Correction
	case price < tech.MA50 && tech.UpDownVolumeRatio > 0 && tech.UpDownVolumeRatio < 0.8:
		return Correction
	case price < tech.MA50:
		return UptrendUnderPressure
	case tech.UpDownVolumeRatio > 0 && tech.UpDownVolumeRatio < 0.8:
		return UptrendUnderPressure
	default:
		return ConfirmedUptrend
	}
}

// Detector resolves the current market regime from a benchmark index,
// with a configured override for manual control. Safe for concurrent
// use: the cron cycles and the command handler both call Detect.
type Detector struct {
	Collector *collector.Collector
	Symbol    string
	Override  string // non-empty skips detection entirely

	mu   sync.Mutex
	last string
}

// NewDetector builds a Detector for the given index symbol.
func NewDetector(col *collector.Collector, symbol, override string) *Detector {
	return &Detector{Collector: col, Symbol: symbol, Override: override}
}

// Detect returns the regime label for this cycle. Detection failures
// fall back to the last known label so a transient fetch error doesn't
// flip entry suppression on or off.
func (d *Detector) Detect(ctx context.Context) string {
	if d.Override != "" {
		return d.Override
	}
	quote, tech, err := d.Collector.Collect(ctx, d.Symbol)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		log.Printf("[WARN] regime detection failed for %s: %v", d.Symbol, err)
		if d.last != "" {
			return d.last
		}
		return ConfirmedUptrend
	}
	d.last = Classify(quote.Price, tech)
	return d.last
}

// Describe renders the regime with the index context for summaries.
func (d *Detector) Describe() string {
	d.mu.Lock()
	label := d.last
	d.mu.Unlock()
	if d.Override != "" {
		label = d.Override + " (override)"
	}
	if label == "" {
		label = "unknown"
	}
	return fmt.Sprintf("%s [%s]", label, d.Symbol)
}

package signal

import (
	"fmt"
	"sync"
	"time"

	"PositionSentinel/internal/model"
)

// AltEntryConfig holds the moving-average pullback thresholds.
type AltEntryConfig struct {
	MinExtensionPct  float64 `yaml:"min_extension_pct"`
	EMA21BouncePct   float64 `yaml:"ema_21_bounce_pct"`
	MA50BouncePct    float64 `yaml:"ma_50_bounce_pct"`
	BounceVolumeMin  float64 `yaml:"bounce_volume_min"`
	PivotRetestPct   float64 `yaml:"pivot_retest_pct"`
	ExtensionTTLDays int     `yaml:"extension_ttl_days"`
}

// AltEntryChecker detects alternative entries on watchlist symbols that
// extended past the buy zone and later pulled back to a key moving
// average or to the pivot. The first or second test of a moving average
// is the highest-probability setup, so tests are counted per symbol.
//
// The checker keeps extension history across evaluation cycles; it is
// safe for concurrent use.
type AltEntryChecker struct {
	cfg AltEntryConfig
	now func() time.Time

	mu        sync.Mutex
	extended  map[string]time.Time
	testCount map[string]int
}

// NewAltEntryChecker builds a checker with defaults filled in.
func NewAltEntryChecker(cfg AltEntryConfig) *AltEntryChecker {
	if cfg.MinExtensionPct == 0 {
		cfg.MinExtensionPct = 5.0
	}
	if cfg.EMA21BouncePct == 0 {
		cfg.EMA21BouncePct = 1.5
	}
	if cfg.MA50BouncePct == 0 {
		cfg.MA50BouncePct = 2.0
	}
	if cfg.BounceVolumeMin == 0 {
		cfg.BounceVolumeMin = 0.7
	}
	if cfg.PivotRetestPct == 0 {
		cfg.PivotRetestPct = 3.0
	}
	if cfg.ExtensionTTLDays == 0 {
		cfg.ExtensionTTLDays = 30
	}
	return &AltEntryChecker{
		cfg:       cfg,
		now:       time.Now,
		extended:  make(map[string]time.Time),
		testCount: make(map[string]int),
	}
}

// Check evaluates alternate-entry conditions for a watchlist symbol.
// Non-watchlist states and symbols without a pivot are skipped. At most
// one candidate is returned, preferring the 21-EMA pullback over the
// 50-MA pullback over the pivot retest.
func (a *AltEntryChecker) Check(snap *model.PositionSnapshot, quote model.Quote, rvol float64) []model.SignalCandidate {
	if snap.State != model.StateWatchlist {
		return nil
	}
	pivot := snap.PivotPrice
	if pivot <= 0 || quote.Price <= 0 {
		return nil
	}

	pctFromPivot := (quote.Price - pivot) / pivot * 100

	a.mu.Lock()
	defer a.mu.Unlock()

	// Mark extension; don't alert while extended, wait for the pullback.
	if pctFromPivot > a.cfg.MinExtensionPct {
		a.extended[snap.Symbol] = a.now()
		return nil
	}

	extendedAt, was := a.extended[snap.Symbol]
	if !was {
		return nil
	}
	if a.now().Sub(extendedAt) > time.Duration(a.cfg.ExtensionTTLDays)*24*time.Hour {
		delete(a.extended, snap.Symbol)
		delete(a.testCount, snap.Symbol)
		return nil
	}

	if cand := a.checkMAPullback(snap, quote, rvol, pivot, snap.EMA21, a.cfg.EMA21BouncePct, 0, "21 EMA"); cand != nil {
		return []model.SignalCandidate{*cand}
	}
	if cand := a.checkMAPullback(snap, quote, rvol, pivot, snap.MA50, a.cfg.MA50BouncePct, -5, "50 MA"); cand != nil {
		return []model.SignalCandidate{*cand}
	}
	if cand := a.checkPivotRetest(snap, quote, rvol, pivot, pctFromPivot); cand != nil {
		return []model.SignalCandidate{*cand}
	}
	return nil
}

// ClearSymbol drops extension tracking for a symbol, e.g. when it moves
// from the watchlist into an active position.
func (a *AltEntryChecker) ClearSymbol(symbol string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.extended, symbol)
	delete(a.testCount, symbol)
}

func (a *AltEntryChecker) checkMAPullback(snap *model.PositionSnapshot, quote model.Quote, rvol float64, pivot, ma, bouncePct, maFloorPct float64, label string) *model.SignalCandidate {
	if ma <= 0 {
		return nil
	}
	pctFromMA := (quote.Price - ma) / ma * 100
	if pctFromMA > bouncePct || pctFromMA < -bouncePct {
		return nil
	}
	// The average must not sit meaningfully below the pivot; that would
	// mean the uptrend is gone. The 21-EMA must hold the pivot itself,
	// the slower 50-MA gets a 5% allowance.
	if (ma-pivot)/pivot*100 < maFloorPct {
		return nil
	}
	if rvol < a.cfg.BounceVolumeMin {
		return nil
	}

	a.testCount[snap.Symbol]++
	test := a.testCount[snap.Symbol]
	probability := "HIGH"
	if test > 2 {
		probability = "MODERATE"
	}

	return &model.SignalCandidate{
		Symbol:      snap.Symbol,
		Type:        model.AlertAltEntry,
		Subtype:     model.SubMABounce,
		OrigSubtype: model.SubMABounce,
		Severity:    model.SeverityInfo,
		Message: fmt.Sprintf("%s pullback: $%.2f (%+.1f%% from %s) | Test #%d (%s)",
			label, ma, pctFromMA, label, test, probability),
		Action:      fmt.Sprintf("BUY - %s pullback (Test #%d)", label, test),
		Time:        a.now(),
		Price:       quote.Price,
		Pivot:       pivot,
		DistancePct: (quote.Price - pivot) / pivot * 100,
		VolumeRatio: rvol,
	}
}

func (a *AltEntryChecker) checkPivotRetest(snap *model.PositionSnapshot, quote model.Quote, rvol float64, pivot, pctFromPivot float64) *model.SignalCandidate {
	if pctFromPivot < -1.0 || pctFromPivot > a.cfg.PivotRetestPct {
		return nil
	}
	if rvol < a.cfg.BounceVolumeMin {
		return nil
	}

	return &model.SignalCandidate{
		Symbol:      snap.Symbol,
		Type:        model.AlertAltEntry,
		Subtype:     model.SubPivotRetest,
		OrigSubtype: model.SubPivotRetest,
		Severity:    model.SeverityInfo,
		Message:     fmt.Sprintf("Pivot retest: $%.2f (%+.1f%% from pivot)", pivot, pctFromPivot),
		Action:      "BUY - Pivot retest entry",
		Time:        a.now(),
		Price:       quote.Price,
		Pivot:       pivot,
		DistancePct: pctFromPivot,
		VolumeRatio: rvol,
	}
}

package position

import (
	"fmt"
	"sync"
	"time"

	"PositionSentinel/internal/model"
)

// Book holds the tracked positions and watchlist candidates loaded from
// the book file, plus the in-memory max-price-since-entry tracking that
// lives for the process lifetime only.
type Book struct {
	mu       sync.Mutex
	records  map[string]*Record
	order    []string
	maxPrice map[string]float64
	filePath string
	now      func() time.Time
}

// NewBook loads the position book from a YAML file.
func NewBook(filePath string) (*Book, error) {
	b := &Book{
		records:  make(map[string]*Record),
		maxPrice: make(map[string]float64),
		filePath: filePath,
		now:      time.Now,
	}
	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload re-reads the book file, keeping max-price tracking for symbols
// that survive the reload.
func (b *Book) Reload() error {
	records, err := LoadRecords(b.filePath)
	if err != nil {
		return fmt.Errorf("load position book: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = make(map[string]*Record, len(records))
	b.order = b.order[:0]
	for i := range records {
		r := &records[i]
		b.records[r.Symbol] = r
		b.order = append(b.order, r.Symbol)
	}
	for symbol := range b.maxPrice {
		if _, kept := b.records[symbol]; !kept {
			delete(b.maxPrice, symbol)
		}
	}
	return nil
}

// Symbols returns the tracked symbols in book order.
func (b *Book) Symbols() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Snapshot assembles the evaluation-cycle view of one position from its
// book record plus the live market data. It also advances the max-price
// watermark for active positions. Returns nil for unknown symbols.
func (b *Book) Snapshot(symbol string, quote model.Quote, tech model.Technicals, regime string) *model.PositionSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.records[symbol]
	if !ok {
		return nil
	}

	if r.State >= model.StateEntry && quote.Price > b.maxPrice[symbol] {
		b.maxPrice[symbol] = quote.Price
	}
	maxPrice := b.maxPrice[symbol]
	if maxPrice < quote.Price {
		maxPrice = quote.Price
	}

	now := b.now()
	snap := &model.PositionSnapshot{
		Symbol:       r.Symbol,
		State:        r.State,
		EntryPrice:   r.EntryPrice,
		PivotPrice:   r.Pivot,
		PivotSetDate: r.PivotDate.Time(),
		BaseStage:    r.BaseStage,
		Shares:       r.Shares,

		CurrentPrice: quote.Price,
		Volume:       quote.Volume,
		AvgVolume50:  tech.AvgVolume50,
		DayHigh:      quote.DayHigh,
		DayLow:       quote.DayLow,
		IsDownDay:    quote.PrevClose > 0 && quote.Price < quote.PrevClose,

		EMA21:    tech.EMA21,
		MA50:     tech.MA50,
		MA200:    tech.MA200,
		MA10Week: tech.MA10Week,

		MaxPrice: maxPrice,

		DaysInPosition:    daysSince(r.EntryDate.Time(), now),
		DaysSinceBreakout: daysSince(r.BreakoutDate.Time(), now),
		DaysToEarnings:    daysUntil(r.EarningsDate.Time(), now),

		UpDownVolumeRatio: tech.UpDownVolumeRatio,
		ADRating:          r.ADRating,
		BaseDepthPct:      r.BaseDepthPct,

		MarketRegime: regime,

		Py1Done:             r.Py1Done,
		Py2Done:             r.Py2Done,
		TP1Sold:             r.TP1Sold,
		TP2Sold:             r.TP2Sold,
		EightWeekHoldActive: r.EightWeekHold,
	}
	return snap
}

// Overrides returns the per-position level overrides from the record.
func (b *Book) Overrides(symbol string) (stopPct, tp1Pct, tp2Pct float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.records[symbol]; ok {
		return r.StopOverridePct, r.TP1OverridePct, r.TP2OverridePct
	}
	return 0, 0, 0
}

func daysSince(t, now time.Time) int {
	if t.IsZero() {
		return 0
	}
	d := int(now.Sub(t).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// daysUntil returns the calendar days until t, or a large sentinel when
// the date is unknown so earnings checks stay silent.
func daysUntil(t, now time.Time) int {
	if t.IsZero() {
		return 9999
	}
	return int(t.Sub(now).Hours() / 24)
}

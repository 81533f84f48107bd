package model

import "time"

// Position lifecycle states. Negative values are closed/exited variants,
// 0 is a watchlist candidate, 1..N are active build-out stages.
const (
	StateClosed    = -1
	StateWatchlist = 0
	StateEntry     = 1
	StatePyramid1  = 2
	StatePyramid2  = 3
	StateFull      = 4
	StateReducing  = 5
	StateExiting   = 6
)

// PositionSnapshot is an ephemeral view of one position for a single
// evaluation cycle. It is rebuilt by the caller every cycle and never
// shared between cycles; zero means "absent" for prices and volumes
// that the invariants require to be positive.
type PositionSnapshot struct {
	Symbol string
	State  int

	// Entry context
	EntryPrice   float64 // average cost
	PivotPrice   float64
	PivotSetDate time.Time
	BaseStage    string // e.g. "2a", "3c(2)"
	Shares       int

	// Live market data
	CurrentPrice float64
	Volume       int64
	AvgVolume50  int64
	DayHigh      float64
	DayLow       float64
	IsDownDay    bool

	// Technicals
	EMA21    float64
	MA50     float64
	MA200    float64
	MA10Week float64

	// Max tracking since entry (process-lifetime, in-memory)
	MaxPrice float64

	// Position age
	DaysInPosition    int
	DaysSinceBreakout int
	DaysToEarnings    int

	// Ratings supplied by the data provider
	UpDownVolumeRatio float64
	ADRating          string // accumulation/distribution, A-E
	BaseDepthPct      float64

	// Market context
	MarketRegime string

	// Executed-action flags
	Py1Done bool
	Py2Done bool
	TP1Sold bool
	TP2Sold bool

	// 8-week hold rule
	EightWeekHoldActive bool
}

// Active reports whether the position holds shares (state >= 1).
func (p *PositionSnapshot) Active() bool { return p.State >= StateEntry }

// PnLPct returns the current gain/loss percentage from average cost,
// or 0 when the entry price is absent.
func (p *PositionSnapshot) PnLPct() float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return (p.CurrentPrice - p.EntryPrice) / p.EntryPrice * 100
}

// MaxGainPct returns the peak gain percentage since entry.
func (p *PositionSnapshot) MaxGainPct() float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return (p.MaxPrice - p.EntryPrice) / p.EntryPrice * 100
}

// DistanceFromPivotPct returns the percentage distance of the current
// price from the pivot, or 0 when the pivot is absent.
func (p *PositionSnapshot) DistanceFromPivotPct() float64 {
	if p.PivotPrice <= 0 {
		return 0
	}
	return (p.CurrentPrice - p.PivotPrice) / p.PivotPrice * 100
}

// BaseStageNumber extracts the numeric stage from the free-form base
// stage string: "2a" -> 2, "3c(2)" -> 3. Unknown strings default to 1.
func (p *PositionSnapshot) BaseStageNumber() int {
	n := 0
	for _, c := range p.BaseStage {
		if c == '(' {
			break
		}
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

package monitor

import (
	"fmt"
	"time"

	"PositionSentinel/internal/health"
	"PositionSentinel/internal/levels"
	"PositionSentinel/internal/model"
)

// Monitor runs the per-position checks that apply to active holdings:
// stops, profit targets, pyramid zones, and the weighted health score.
// Breakout classification for watchlist entries lives in the signal
// package; the Monitor only looks at positions that hold shares.
type Monitor struct {
	calc   *levels.Calculator
	scorer *health.Scorer
	now    func() time.Time
}

// New builds a Monitor around the shared calculator and scorer.
func New(calc *levels.Calculator, scorer *health.Scorer) *Monitor {
	return &Monitor{calc: calc, scorer: scorer, now: time.Now}
}

// SetClock replaces the monitor's clock. Test hook.
func (m *Monitor) SetClock(now func() time.Time) { m.now = now }

// Evaluate runs every check against one snapshot. Stop alerts come
// first so a stop hit is never buried under a profit or pyramid note.
func (m *Monitor) Evaluate(snap *model.PositionSnapshot, ov levels.Overrides) []model.SignalCandidate {
	if !snap.Active() || snap.CurrentPrice <= 0 {
		return nil
	}

	var out []model.SignalCandidate
	if cand := m.CheckStops(snap, ov); cand != nil {
		out = append(out, *cand)
	}
	if cand := m.CheckProfit(snap, ov); cand != nil {
		out = append(out, *cand)
	}
	if cand := m.CheckPyramid(snap); cand != nil {
		out = append(out, *cand)
	}
	if cand := m.CheckHealth(snap); cand != nil {
		out = append(out, *cand)
	}
	return out
}

// CheckStops compares the current price against the dynamic stop and
// the warning band above the hard stop.
func (m *Monitor) CheckStops(snap *model.PositionSnapshot, ov levels.Overrides) *model.SignalCandidate {
	lv, err := m.calc.Compute(snap.EntryPrice, snap.BaseStage, ov)
	if err != nil {
		return nil
	}
	pnl := snap.PnLPct()
	trailing, trailingActive := m.calc.TrailingStop(snap.EntryPrice, snap.MaxPrice, snap.MaxGainPct())

	if trailingActive && trailing > lv.HardStop && snap.CurrentPrice <= trailing {
		return m.candidate(snap, model.AlertStop, model.SubTrailingStop, model.SeverityCritical,
			fmt.Sprintf("Trailing stop hit at $%.2f (peak $%.2f, now %+.1f%%)", trailing, snap.MaxPrice, pnl),
			"SELL - protect the remaining gain", pnl)
	}
	if snap.CurrentPrice <= lv.HardStop {
		return m.candidate(snap, model.AlertStop, model.SubHardStop, model.SeverityCritical,
			fmt.Sprintf("Hard stop hit at $%.2f (%+.1f%% from entry)", lv.HardStop, pnl),
			"SELL ALL immediately", pnl)
	}
	if snap.CurrentPrice <= lv.WarningStop {
		return m.candidate(snap, model.AlertStop, model.SubStopWarning, model.SeverityWarning,
			fmt.Sprintf("Approaching stop: $%.2f, %.1f%% above hard stop $%.2f",
				snap.CurrentPrice, lv.DistanceToStopPct(snap.CurrentPrice), lv.HardStop),
			"PREPARE to sell if weakness continues", pnl)
	}
	return nil
}

// CheckProfit evaluates the profit targets, honouring the 8-week hold
// rule: a position that reaches the first target within three weeks of
// its breakout is a candidate to hold for eight weeks instead of
// selling into the first strength.
func (m *Monitor) CheckProfit(snap *model.PositionSnapshot, ov levels.Overrides) *model.SignalCandidate {
	st := m.calc.Profit(snap.EntryPrice, snap.CurrentPrice, ov)

	if st.TP2Hit && !snap.TP2Sold {
		if snap.EightWeekHoldActive {
			return nil // holding through targets by rule
		}
		return m.candidate(snap, model.AlertProfit, model.SubTP2, model.SeverityProfit,
			fmt.Sprintf("Second profit target reached (%+.1f%%)", st.PnLPct),
			"SELL remaining partial - lock in the move", st.PnLPct)
	}
	if st.TP1Hit && !snap.TP1Sold {
		if snap.EightWeekHoldActive {
			return nil
		}
		if snap.DaysSinceBreakout > 0 && snap.DaysSinceBreakout <= 21 {
			return m.candidate(snap, model.AlertProfit, model.SubEightWeekHold, model.SeverityInfo,
				fmt.Sprintf("%+.1f%% within %d days of breakout - 8-week hold candidate", st.PnLPct, snap.DaysSinceBreakout),
				"HOLD 8 weeks from breakout - fast movers earn the hold", st.PnLPct)
		}
		return m.candidate(snap, model.AlertProfit, model.SubTP1, model.SeverityProfit,
			fmt.Sprintf("First profit target reached (%+.1f%%)", st.PnLPct),
			"SELL 1/3 to 1/2 - bank partial profits", st.PnLPct)
	}
	return nil
}

// CheckPyramid reports when the position sits in an actionable add
// zone, or has run past one without the add being executed.
func (m *Monitor) CheckPyramid(snap *model.PositionSnapshot) *model.SignalCandidate {
	st := m.calc.Pyramid(snap.EntryPrice, snap.CurrentPrice, snap.State, snap.Py1Done, snap.Py2Done)

	switch {
	case st.Py1Ready:
		return m.candidate(snap, model.AlertPyramid, model.SubP1Ready, model.SeverityProfit,
			fmt.Sprintf("%+.1f%% from entry - first pyramid zone", st.PnLPct),
			"BUY 1/4 position add", st.PnLPct)
	case st.Py1Extended:
		return m.candidate(snap, model.AlertPyramid, model.SubP1Extended, model.SeverityWarning,
			fmt.Sprintf("%+.1f%% from entry - past the first add zone", st.PnLPct),
			"DO NOT ADD - wait for the next base", st.PnLPct)
	case st.Py2Ready:
		return m.candidate(snap, model.AlertPyramid, model.SubP2Ready, model.SeverityProfit,
			fmt.Sprintf("%+.1f%% from entry - second pyramid zone", st.PnLPct),
			"BUY smaller second add", st.PnLPct)
	case st.Py2Extended:
		return m.candidate(snap, model.AlertPyramid, model.SubP2Extended, model.SeverityWarning,
			fmt.Sprintf("%+.1f%% from entry - past the second add zone", st.PnLPct),
			"DO NOT ADD - position is built out", st.PnLPct)
	}
	return nil
}

// CheckHealth emits a critical health alert when the weighted score
// crosses the sell threshold. Lower ratings surface in the daily
// summary instead of an alert.
func (m *Monitor) CheckHealth(snap *model.PositionSnapshot) *model.SignalCandidate {
	assessment := m.scorer.Score(snap)
	if assessment.Rating != model.RatingCritical {
		return nil
	}
	cand := m.candidate(snap, model.AlertHealth, model.SubHealthCritical, model.SeverityCritical,
		fmt.Sprintf("Health score %d (%s): %s", assessment.Score, assessment.Rating, assessment.PrimaryWarning),
		fmt.Sprintf("%s - %d warnings active", assessment.Action, len(assessment.Warnings)), snap.PnLPct())
	cand.HealthScore = assessment.Score
	return cand
}

// Health exposes the full assessment for summaries and recording.
func (m *Monitor) Health(snap *model.PositionSnapshot) model.HealthAssessment {
	return m.scorer.Score(snap)
}

func (m *Monitor) candidate(snap *model.PositionSnapshot, typ model.AlertType, sub model.AlertSubtype, severity, message, action string, pnl float64) *model.SignalCandidate {
	return &model.SignalCandidate{
		Symbol:       snap.Symbol,
		Type:         typ,
		Subtype:      sub,
		OrigSubtype:  sub,
		Severity:     severity,
		Message:      message,
		Action:       action,
		Time:         m.now(),
		Price:        snap.CurrentPrice,
		Pivot:        snap.PivotPrice,
		EntryPrice:   snap.EntryPrice,
		DistancePct:  snap.DistanceFromPivotPct(),
		PnLPct:       pnl,
		MarketRegime: snap.MarketRegime,
	}
}

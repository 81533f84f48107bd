package model

import "time"

// AlertType categorizes alerts by the decision that produced them.
type AlertType string

const (
	AlertBreakout  AlertType = "BREAKOUT"
	AlertPyramid   AlertType = "PYRAMID"
	AlertProfit    AlertType = "PROFIT"
	AlertStop      AlertType = "STOP"
	AlertTechnical AlertType = "TECHNICAL"
	AlertHealth    AlertType = "HEALTH"
	AlertAltEntry  AlertType = "ALT_ENTRY"
)

// AlertSubtype identifies the specific condition within an alert type.
type AlertSubtype string

const (
	// Breakout subtypes
	SubConfirmed   AlertSubtype = "CONFIRMED"
	SubSuppressed  AlertSubtype = "SUPPRESSED"
	SubInBuyZone   AlertSubtype = "IN_BUY_ZONE"
	SubApproaching AlertSubtype = "APPROACHING"
	SubExtended    AlertSubtype = "EXTENDED"
	SubBelowPivot  AlertSubtype = "BELOW_PIVOT"

	// Pyramid subtypes
	SubP1Ready    AlertSubtype = "P1_READY"
	SubP1Extended AlertSubtype = "P1_EXTENDED"
	SubP2Ready    AlertSubtype = "P2_READY"
	SubP2Extended AlertSubtype = "P2_EXTENDED"

	// Profit subtypes
	SubTP1           AlertSubtype = "TP1"
	SubTP2           AlertSubtype = "TP2"
	SubEightWeekHold AlertSubtype = "8_WEEK_HOLD"

	// Stop subtypes
	SubHardStop     AlertSubtype = "HARD_STOP"
	SubStopWarning  AlertSubtype = "WARNING"
	SubTrailingStop AlertSubtype = "TRAILING_STOP"

	// Health subtypes
	SubHealthCritical AlertSubtype = "CRITICAL"

	// Alternative entry subtypes
	SubMABounce    AlertSubtype = "MA_BOUNCE"
	SubPivotRetest AlertSubtype = "PIVOT_RETEST"
)

// Severity levels used for display and routing.
const (
	SeverityInfo     = "info"
	SeverityProfit   = "profit"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
	SeverityNeutral  = "neutral"
)

// SignalCandidate is a classified alert candidate awaiting arbitration.
// OrigSubtype preserves the subtype as originally classified; it differs
// from Subtype only after a market-regime suppression rewrite and is the
// key the cooldown window is tracked under.
type SignalCandidate struct {
	Symbol      string
	Type        AlertType
	Subtype     AlertSubtype
	OrigSubtype AlertSubtype
	Severity    string
	Message     string
	Action      string
	Time        time.Time

	// Numeric context captured at classification time
	Price        float64
	Pivot        float64
	EntryPrice   float64
	DistancePct  float64
	PnLPct       float64
	VolumeRatio  float64
	HealthScore  int
	MarketRegime string
}

// CooldownSubtype returns the subtype the cooldown key is built from.
func (c *SignalCandidate) CooldownSubtype() AlertSubtype {
	if c.OrigSubtype != "" {
		return c.OrigSubtype
	}
	return c.Subtype
}

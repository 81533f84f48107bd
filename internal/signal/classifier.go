package signal

import (
	"fmt"
	"strings"
	"time"

	"PositionSentinel/internal/model"
)

// Config holds the breakout classification thresholds.
type Config struct {
	BuyZoneMaxPct      float64  `yaml:"buy_zone_max_pct"`
	ApproachingPct     float64  `yaml:"approaching_pct"`
	MaxExtendedPct     float64  `yaml:"max_extended_pct"`
	ConfirmedRVOL      float64  `yaml:"confirmed_rvol"`
	StrongCloseFrac    float64  `yaml:"strong_close_fraction"`
	PivotStaleDays     int      `yaml:"pivot_stale_days"`
	SuppressingRegimes []string `yaml:"suppressing_regimes"`

	Session  Session        `yaml:"session"`
	AltEntry AltEntryConfig `yaml:"alt_entry"`
}

// Classifier turns a position snapshot plus a live quote into breakout
// signal candidates. Classification itself is stateless; the embedded
// alternate-entry checker tracks extension history across cycles.
type Classifier struct {
	cfg Config
	now func() time.Time
	alt *AltEntryChecker
}

// NewClassifier builds a Classifier with defaults filled in. The clock
// defaults to time.Now and is injectable for tests.
func NewClassifier(cfg Config) *Classifier {
	if cfg.BuyZoneMaxPct == 0 {
		cfg.BuyZoneMaxPct = 5.0
	}
	if cfg.ApproachingPct == 0 {
		cfg.ApproachingPct = 1.0
	}
	if cfg.MaxExtendedPct == 0 {
		cfg.MaxExtendedPct = 15.0
	}
	if cfg.ConfirmedRVOL == 0 {
		cfg.ConfirmedRVOL = 1.4
	}
	if cfg.StrongCloseFrac == 0 {
		cfg.StrongCloseFrac = 0.5
	}
	if cfg.PivotStaleDays == 0 {
		cfg.PivotStaleDays = 60
	}
	if cfg.SuppressingRegimes == nil {
		cfg.SuppressingRegimes = []string{"CORRECTION", "BEARISH", "DOWNTREND"}
	}
	if cfg.Session == (Session{}) {
		cfg.Session = defaultSession()
	}
	return &Classifier{
		cfg: cfg,
		now: time.Now,
		alt: NewAltEntryChecker(cfg.AltEntry),
	}
}

// SetClock replaces the classifier's clock. Test hook.
func (c *Classifier) SetClock(now func() time.Time) {
	c.now = now
	c.alt.now = now
}

// AltEntry exposes the embedded alternate-entry checker.
func (c *Classifier) AltEntry() *AltEntryChecker { return c.alt }

// Classify evaluates the breakout state of one symbol. Requires a
// positive pivot and price; otherwise no signal is produced. At most
// one breakout candidate is returned, in priority order (confirmed >
// in-buy-zone > extended > approaching > below-pivot), plus any
// alternate-entry candidates, which are evaluated independently.
func (c *Classifier) Classify(snap *model.PositionSnapshot, quote model.Quote, regime string) []model.SignalCandidate {
	if snap.PivotPrice <= 0 || quote.Price <= 0 {
		return nil
	}

	now := c.now()
	pivot := snap.PivotPrice
	distancePct := (quote.Price - pivot) / pivot * 100
	rvol := c.cfg.Session.RVOL(quote.Volume, snap.AvgVolume50, now)

	// Strong close: price in the upper half of the day's range. A flat
	// range counts as strong.
	dayRange := quote.DayHigh - quote.DayLow
	strongClose := dayRange <= 0 || (quote.Price-quote.DayLow)/dayRange >= c.cfg.StrongCloseFrac

	abovePivot := quote.Price > pivot
	inBuyZone := abovePivot && distancePct <= c.cfg.BuyZoneMaxPct

	var cand *model.SignalCandidate
	switch {
	case inBuyZone && rvol >= c.cfg.ConfirmedRVOL && strongClose:
		sub := model.SubConfirmed
		if c.suppressing(regime) {
			sub = model.SubSuppressed
		}
		cand = c.newCandidate(snap, quote, sub, model.SubConfirmed, distancePct, rvol, regime)
	case inBuyZone:
		cand = c.newCandidate(snap, quote, model.SubInBuyZone, model.SubInBuyZone, distancePct, rvol, regime)
	case distancePct > c.cfg.BuyZoneMaxPct && distancePct <= c.cfg.MaxExtendedPct:
		cand = c.newCandidate(snap, quote, model.SubExtended, model.SubExtended, distancePct, rvol, regime)
	case distancePct >= -c.cfg.ApproachingPct && distancePct <= 0:
		cand = c.newCandidate(snap, quote, model.SubApproaching, model.SubApproaching, distancePct, rvol, regime)
	case distancePct < -c.cfg.ApproachingPct:
		cand = c.newCandidate(snap, quote, model.SubBelowPivot, model.SubBelowPivot, distancePct, rvol, regime)
	}

	var out []model.SignalCandidate
	if cand != nil {
		out = append(out, *cand)
	}

	// Alternate entries are always additionally evaluated.
	out = append(out, c.alt.Check(snap, quote, rvol)...)

	return out
}

// Suppressing reports whether the regime label disables new entries.
func (c *Classifier) Suppressing(regime string) bool { return c.suppressing(regime) }

func (c *Classifier) suppressing(regime string) bool {
	if regime == "" {
		return false
	}
	up := strings.ToUpper(regime)
	for _, r := range c.cfg.SuppressingRegimes {
		if up == strings.ToUpper(r) {
			return true
		}
	}
	return false
}

func (c *Classifier) newCandidate(snap *model.PositionSnapshot, quote model.Quote, sub, orig model.AlertSubtype, distancePct, rvol float64, regime string) *model.SignalCandidate {
	pivot := snap.PivotPrice
	buyZoneTop := pivot * (1 + c.cfg.BuyZoneMaxPct/100)

	var message, action, severity string
	switch sub {
	case model.SubConfirmed:
		message = fmt.Sprintf("Breakout confirmed above $%.2f pivot with %.1fx volume", pivot, rvol)
		action = "BUY within buy zone"
		severity = model.SeverityProfit
	case model.SubSuppressed:
		message = fmt.Sprintf("Breakout above $%.2f but SUPPRESSED due to market correction", pivot)
		action = "WAIT for market to confirm uptrend"
		severity = model.SeverityCritical
	case model.SubInBuyZone:
		message = fmt.Sprintf("In buy zone ($%.2f - $%.2f) but weak close or volume", pivot, buyZoneTop)
		action = "WATCH for volume confirmation"
		severity = model.SeverityInfo
	case model.SubExtended:
		message = fmt.Sprintf("Extended %.1f%% above pivot - beyond buy zone", distancePct)
		action = "DO NOT CHASE - wait for pullback"
		severity = model.SeverityWarning
	case model.SubApproaching:
		message = fmt.Sprintf("Approaching pivot at $%.2f (%+.1f%%)", pivot, distancePct)
		action = "PREPARE for potential breakout"
		severity = model.SeverityInfo
	case model.SubBelowPivot:
		message = fmt.Sprintf("Below pivot at $%.2f (%+.1f%%)", pivot, distancePct)
		action = "WAIT for price to approach pivot"
		severity = model.SeverityNeutral
	}

	if days := c.pivotAgeDays(snap); days > c.cfg.PivotStaleDays {
		message += fmt.Sprintf(" (stale pivot: %d days old)", days)
	}

	return &model.SignalCandidate{
		Symbol:       snap.Symbol,
		Type:         model.AlertBreakout,
		Subtype:      sub,
		OrigSubtype:  orig,
		Severity:     severity,
		Message:      message,
		Action:       action,
		Time:         c.now(),
		Price:        quote.Price,
		Pivot:        pivot,
		EntryPrice:   snap.EntryPrice,
		DistancePct:  distancePct,
		VolumeRatio:  rvol,
		MarketRegime: regime,
	}
}

func (c *Classifier) pivotAgeDays(snap *model.PositionSnapshot) int {
	if snap.PivotSetDate.IsZero() {
		return 0
	}
	return int(c.now().Sub(snap.PivotSetDate).Hours() / 24)
}

package signal

import (
	"math"
	"strings"
	"testing"
	"time"

	"PositionSentinel/internal/model"
)

func nyTime(t *testing.T, hour, min int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return time.Date(2026, 8, 24, hour, min, 0, 0, loc)
}

func watchSnapshot() *model.PositionSnapshot {
	return &model.PositionSnapshot{
		Symbol:      "AAPL",
		State:       model.StateWatchlist,
		PivotPrice:  100,
		AvgVolume50: 1_000_000,
	}
}

func fixedClassifier(t *testing.T, hour, min int) *Classifier {
	t.Helper()
	c := NewClassifier(Config{})
	at := nyTime(t, hour, min)
	c.SetClock(func() time.Time { return at })
	return c
}

func TestRVOL(t *testing.T) {
	s := defaultSession()
	close := time.Date(2026, 8, 24, 16, 0, 0, 0, mustLoc(t))

	// Full day, equal volumes: exactly 1.0.
	if got := s.RVOL(1_000_000, 1_000_000, close); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected rvol 1.0 at close, got %.4f", got)
	}

	// Non-positive operands: 0.
	if got := s.RVOL(0, 1_000_000, close); got != 0 {
		t.Errorf("expected 0 for zero volume, got %.4f", got)
	}
	if got := s.RVOL(1_000_000, 0, close); got != 0 {
		t.Errorf("expected 0 for zero avg volume, got %.4f", got)
	}

	// Halfway through the session (12:45), half the average traded: 1.0.
	half := time.Date(2026, 8, 24, 12, 45, 0, 0, mustLoc(t))
	if got := s.RVOL(500_000, 1_000_000, half); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected rvol 1.0 at half day/half volume, got %.4f", got)
	}

	// Early reading is not penalized: 39 minutes in (10% of day),
	// 10% of average volume is normal pace.
	early := time.Date(2026, 8, 24, 10, 9, 0, 0, mustLoc(t))
	if got := s.RVOL(100_000, 1_000_000, early); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected rvol 1.0 for on-pace early reading, got %.4f", got)
	}

	// Before the open the elapsed time clamps to one minute.
	pre := time.Date(2026, 8, 24, 8, 0, 0, 0, mustLoc(t))
	if got := s.RVOL(2_564, 1_000_000, pre); math.Abs(got-1.0) > 1e-2 {
		t.Errorf("expected rvol ~1.0 pre-open at one-minute pace, got %.4f", got)
	}
}

func mustLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestClassify_ConfirmedAndSuppressed(t *testing.T) {
	c := fixedClassifier(t, 16, 0)
	snap := watchSnapshot()
	quote := model.Quote{Price: 102, Volume: 1_500_000, DayHigh: 102.5, DayLow: 99}

	cands := c.Classify(snap, quote, "CONFIRMED_UPTREND")
	if len(cands) != 1 {
		t.Fatalf("expected exactly one candidate, got %d", len(cands))
	}
	got := cands[0]
	if got.Subtype != model.SubConfirmed {
		t.Errorf("expected CONFIRMED, got %s", got.Subtype)
	}
	if math.Abs(got.DistancePct-2.0) > 1e-9 {
		t.Errorf("expected distance 2%%, got %.4f", got.DistancePct)
	}

	// Same inputs in a correction: one SUPPRESSED candidate with the
	// identical numeric context, original subtype preserved.
	cands = c.Classify(snap, quote, "CORRECTION")
	if len(cands) != 1 {
		t.Fatalf("expected exactly one candidate, got %d", len(cands))
	}
	sup := cands[0]
	if sup.Subtype != model.SubSuppressed {
		t.Errorf("expected SUPPRESSED, got %s", sup.Subtype)
	}
	if sup.OrigSubtype != model.SubConfirmed {
		t.Errorf("expected original subtype CONFIRMED, got %s", sup.OrigSubtype)
	}
	if sup.DistancePct != got.DistancePct || sup.VolumeRatio != got.VolumeRatio {
		t.Error("suppressed candidate should carry the same numeric context")
	}
}

func TestClassify_InBuyZoneWeakVolume(t *testing.T) {
	c := fixedClassifier(t, 16, 0)
	snap := watchSnapshot()
	// 0.9x volume: below the 1.4x confirmation threshold.
	quote := model.Quote{Price: 103, Volume: 900_000, DayHigh: 104, DayLow: 101}

	cands := c.Classify(snap, quote, "CONFIRMED_UPTREND")
	if len(cands) != 1 || cands[0].Subtype != model.SubInBuyZone {
		t.Fatalf("expected IN_BUY_ZONE, got %+v", cands)
	}
}

func TestClassify_WeakClose(t *testing.T) {
	c := fixedClassifier(t, 16, 0)
	snap := watchSnapshot()
	// Heavy volume but close in the lower half of the range.
	quote := model.Quote{Price: 101, Volume: 2_000_000, DayHigh: 104, DayLow: 100}

	cands := c.Classify(snap, quote, "CONFIRMED_UPTREND")
	if len(cands) != 1 || cands[0].Subtype != model.SubInBuyZone {
		t.Fatalf("expected IN_BUY_ZONE on weak close, got %+v", cands)
	}
}

func TestClassify_ExtendedBand(t *testing.T) {
	c := fixedClassifier(t, 16, 0)
	snap := watchSnapshot()

	quote := model.Quote{Price: 107, Volume: 1_000_000, DayHigh: 107, DayLow: 105}
	cands := c.Classify(snap, quote, "")
	if len(cands) != 1 || cands[0].Subtype != model.SubExtended {
		t.Fatalf("expected EXTENDED at +7%%, got %+v", cands)
	}

	// Beyond the maximum-extended threshold: no breakout candidate at
	// all (the alt-entry checker only marks the extension).
	quote.Price = 116
	cands = c.Classify(snap, quote, "")
	if len(cands) != 0 {
		t.Fatalf("expected no candidate at +16%%, got %+v", cands)
	}
}

func TestClassify_ApproachingAndBelow(t *testing.T) {
	c := fixedClassifier(t, 16, 0)
	snap := watchSnapshot()

	quote := model.Quote{Price: 99.5, Volume: 1_000_000, DayHigh: 100, DayLow: 99}
	cands := c.Classify(snap, quote, "")
	if len(cands) != 1 || cands[0].Subtype != model.SubApproaching {
		t.Fatalf("expected APPROACHING at -0.5%%, got %+v", cands)
	}

	quote.Price = 95
	cands = c.Classify(snap, quote, "")
	if len(cands) != 1 || cands[0].Subtype != model.SubBelowPivot {
		t.Fatalf("expected BELOW_PIVOT at -5%%, got %+v", cands)
	}
	if cands[0].Severity != model.SeverityNeutral {
		t.Errorf("below-pivot should be informational, got severity %s", cands[0].Severity)
	}
}

func TestClassify_GuardsInvalidInput(t *testing.T) {
	c := fixedClassifier(t, 16, 0)

	snap := watchSnapshot()
	snap.PivotPrice = 0
	if cands := c.Classify(snap, model.Quote{Price: 100}, ""); cands != nil {
		t.Errorf("expected no candidates without pivot, got %+v", cands)
	}

	snap.PivotPrice = 100
	if cands := c.Classify(snap, model.Quote{Price: 0}, ""); cands != nil {
		t.Errorf("expected no candidates without price, got %+v", cands)
	}
}

func TestClassify_StalePivotNote(t *testing.T) {
	c := fixedClassifier(t, 16, 0)
	snap := watchSnapshot()
	snap.PivotSetDate = nyTime(t, 16, 0).AddDate(0, 0, -90)

	quote := model.Quote{Price: 103, Volume: 900_000, DayHigh: 104, DayLow: 101}
	cands := c.Classify(snap, quote, "")
	if len(cands) != 1 {
		t.Fatal("expected one candidate")
	}
	if want := "stale pivot: 90 days old"; !strings.Contains(cands[0].Message, want) {
		t.Errorf("expected staleness note %q in %q", want, cands[0].Message)
	}
}

func TestAltEntry_EMA21PullbackAfterExtension(t *testing.T) {
	c := fixedClassifier(t, 16, 0)
	snap := watchSnapshot()
	snap.EMA21 = 103.5
	snap.MA50 = 98

	// First cycle: extended, marked but silent (also beyond the max
	// extended band, so no breakout candidate either).
	quote := model.Quote{Price: 120, Volume: 1_000_000, DayHigh: 121, DayLow: 118}
	if cands := c.Classify(snap, quote, ""); len(cands) != 0 {
		t.Fatalf("expected silence while extended, got %+v", cands)
	}

	// Second cycle: pulled back to the 21 EMA on decent volume.
	quote = model.Quote{Price: 103, Volume: 1_000_000, DayHigh: 105, DayLow: 102.5}
	cands := c.Classify(snap, quote, "")

	var alt *model.SignalCandidate
	for i := range cands {
		if cands[i].Type == model.AlertAltEntry {
			alt = &cands[i]
		}
	}
	if alt == nil {
		t.Fatalf("expected an alt-entry candidate, got %+v", cands)
	}
	if alt.Subtype != model.SubMABounce {
		t.Errorf("expected MA_BOUNCE, got %s", alt.Subtype)
	}
	if !strings.Contains(alt.Action, "Test #1") {
		t.Errorf("expected first test in action, got %q", alt.Action)
	}
}

func TestAltEntry_NoPullbackWithoutPriorExtension(t *testing.T) {
	c := fixedClassifier(t, 16, 0)
	snap := watchSnapshot()
	snap.EMA21 = 102

	// Never extended: near the EMA but no alt-entry signal.
	quote := model.Quote{Price: 102, Volume: 1_000_000, DayHigh: 103, DayLow: 101}
	cands := c.Classify(snap, quote, "")
	for _, cand := range cands {
		if cand.Type == model.AlertAltEntry {
			t.Fatalf("unexpected alt-entry without prior extension: %+v", cand)
		}
	}
}

func TestAltEntry_PivotRetest(t *testing.T) {
	c := fixedClassifier(t, 16, 0)
	snap := watchSnapshot()

	// Extend first, then return to the pivot zone with no MAs set.
	c.Classify(snap, model.Quote{Price: 120, Volume: 1_000_000, DayHigh: 121, DayLow: 119}, "")
	cands := c.Classify(snap, model.Quote{Price: 101, Volume: 1_000_000, DayHigh: 103, DayLow: 100.5}, "")

	var alt *model.SignalCandidate
	for i := range cands {
		if cands[i].Type == model.AlertAltEntry {
			alt = &cands[i]
		}
	}
	if alt == nil || alt.Subtype != model.SubPivotRetest {
		t.Fatalf("expected PIVOT_RETEST, got %+v", cands)
	}
}

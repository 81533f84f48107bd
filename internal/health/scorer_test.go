package health

import (
	"testing"

	"PositionSentinel/internal/model"
)

func healthySnapshot() *model.PositionSnapshot {
	return &model.PositionSnapshot{
		Symbol:         "NVDA",
		State:          model.StateEntry,
		EntryPrice:     100,
		CurrentPrice:   108,
		MA50:           95,
		MA200:          85,
		AvgVolume50:    1_000_000,
		Volume:         900_000,
		ADRating:       "B",
		BaseStage:      "2",
		DaysInPosition: 15,
	}
}

func TestScore_HealthyPosition(t *testing.T) {
	s := NewScorer(Config{})
	res := s.Score(healthySnapshot())
	if res.Score != 0 {
		t.Errorf("expected score 0, got %d (%v)", res.Score, res.WarningCodes())
	}
	if res.Rating != model.RatingHealthy || res.Action != "HOLD" {
		t.Errorf("expected HEALTHY/HOLD, got %s/%s", res.Rating, res.Action)
	}
}

func TestScore_WatchlistReturnsZero(t *testing.T) {
	s := NewScorer(Config{})
	snap := healthySnapshot()
	snap.State = model.StateWatchlist
	snap.CurrentPrice = 50 // would trigger MA warnings if scored
	res := s.Score(snap)
	if res.Score != 0 || len(res.Warnings) != 0 {
		t.Errorf("watchlist position should not be scored: %+v", res)
	}
	if res.Action != "N/A" {
		t.Errorf("expected N/A action, got %s", res.Action)
	}
}

func TestScore_RatingBoundaries(t *testing.T) {
	tests := []struct {
		score  int
		rating model.HealthRating
		action string
	}{
		{0, model.RatingHealthy, "HOLD"},
		{1, model.RatingHealthy, "HOLD"},
		{2, model.RatingCaution, "MONITOR"},
		{3, model.RatingCaution, "MONITOR"},
		{4, model.RatingWarning, "REDUCE"},
		{5, model.RatingWarning, "REDUCE"},
		{6, model.RatingCritical, "SELL"},
		{9, model.RatingCritical, "SELL"},
	}
	for _, tt := range tests {
		rating, action, _ := classify(tt.score)
		if rating != tt.rating || action != tt.action {
			t.Errorf("score %d: expected %s/%s, got %s/%s", tt.score, tt.rating, tt.action, rating, action)
		}
	}
}

func TestScore_Monotonic(t *testing.T) {
	s := NewScorer(Config{})
	snap := healthySnapshot()
	prev := s.Score(snap).Score

	// Add warning conditions one at a time; score must never decrease.
	steps := []func(){
		func() { snap.CurrentPrice = 94 }, // below 50 MA
		func() { snap.ADRating = "D" },
		func() { snap.UpDownVolumeRatio = 0.5 },
		func() { snap.BaseStage = "4" },
		func() { snap.BaseDepthPct = 40 },
		func() { snap.CurrentPrice = 80 }, // now also below 200 MA
	}
	for i, step := range steps {
		step()
		got := s.Score(snap).Score
		if got < prev {
			t.Errorf("step %d: score decreased from %d to %d", i, prev, got)
		}
		prev = got
	}
}

func TestScore_MAWarningsOverwritePrimary(t *testing.T) {
	s := NewScorer(Config{})
	snap := healthySnapshot()
	snap.DaysInPosition = 75
	snap.CurrentPrice = 101 // <50% of TP1 progress -> time warning first
	snap.MA50 = 110         // below 50 MA
	snap.MA200 = 105        // below 200 MA, evaluated last of the two

	res := s.Score(snap)
	if res.PrimaryWarning != "BELOW 200 MA" {
		t.Errorf("expected BELOW 200 MA to win the primary slot, got %q", res.PrimaryWarning)
	}
}

func TestScore_EarningsNegativePnLOverwrites(t *testing.T) {
	s := NewScorer(Config{})
	snap := healthySnapshot()
	snap.CurrentPrice = 98 // negative P&L, above both MAs? no: below 50MA(95)? 98>95, ok
	snap.DaysToEarnings = 3
	snap.BaseStage = "4" // late stage would claim primary first

	res := s.Score(snap)
	if res.PrimaryWarning != "EARNINGS - NEGATIVE P&L" {
		t.Errorf("expected earnings warning to overwrite primary, got %q", res.PrimaryWarning)
	}
}

func TestScore_EarningsThinCushion(t *testing.T) {
	s := NewScorer(Config{})
	snap := healthySnapshot()
	snap.CurrentPrice = 105 // +5%, below the 10% cushion
	snap.DaysToEarnings = 4

	res := s.Score(snap)
	found := false
	for _, w := range res.Warnings {
		if w.Code == "ER<10%" {
			found = true
			if w.Weight != 2 {
				t.Errorf("expected weight 2 for thin cushion, got %d", w.Weight)
			}
		}
	}
	if !found {
		t.Errorf("expected ER<10%% warning: %v", res.WarningCodes())
	}
}

func TestScore_DistributionDay(t *testing.T) {
	s := NewScorer(Config{})
	snap := healthySnapshot()
	snap.IsDownDay = true
	snap.Volume = 1_600_000 // 1.6x the 50-day average

	res := s.Score(snap)
	if res.Score != 2 {
		t.Errorf("expected score 2 for distribution day, got %d (%v)", res.Score, res.WarningCodes())
	}
	if res.PrimaryWarning != "DISTRIBUTION DAY" {
		t.Errorf("expected DISTRIBUTION DAY primary, got %q", res.PrimaryWarning)
	}

	// Same volume on an up day: no warning.
	snap.IsDownDay = false
	if got := s.Score(snap).Score; got != 0 {
		t.Errorf("up day on high volume should not score, got %d", got)
	}
}

func TestScore_CriticalStack(t *testing.T) {
	s := NewScorer(Config{})
	snap := &model.PositionSnapshot{
		Symbol:         "XYZ",
		State:          model.StatePyramid2,
		EntryPrice:     40,
		CurrentPrice:   38, // negative P&L
		MA50:           45, // below
		MA200:          48, // below
		ADRating:       "E",
		BaseStage:      "4",
		BaseDepthPct:   42,
		DaysToEarnings: 3,
		DaysInPosition: 75,
		AvgVolume50:    1_000_000,
		Volume:         500_000,
	}
	res := s.Score(snap)
	// no-progress(2) + 50MA(2) + 200MA(3) + A/D:E(3) + late(2) + ERneg(3) + deep(3)
	if res.Score != 18 {
		t.Errorf("expected score 18, got %d (%v)", res.Score, res.WarningCodes())
	}
	if res.Rating != model.RatingCritical || res.Action != "SELL" {
		t.Errorf("expected CRITICAL/SELL, got %s/%s", res.Rating, res.Action)
	}
}

func TestScore_FallbackPrimaryJoinsCodes(t *testing.T) {
	s := NewScorer(Config{})
	snap := healthySnapshot()
	snap.ADRating = "D"            // sets no primary
	snap.UpDownVolumeRatio = 0.5   // sets no primary

	res := s.Score(snap)
	if res.PrimaryWarning != "A/D:D + U/D<0.8" {
		t.Errorf("expected joined fallback primary, got %q", res.PrimaryWarning)
	}
}

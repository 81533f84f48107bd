package health

import (
	"fmt"
	"strings"

	"PositionSentinel/internal/model"
)

// Config holds the health-check weights and thresholds. Zero-valued
// fields fall back to the defaults applied by NewScorer.
type Config struct {
	TimeThresholdDays    int     `yaml:"time_threshold_days"`
	TP1ProgressFraction  float64 `yaml:"tp1_progress_fraction"`
	TP1Pct               float64 `yaml:"tp1_pct"`
	DeepBaseThresholdPct float64 `yaml:"deep_base_threshold_pct"`
	EarningsWarningDays  int     `yaml:"earnings_warning_days"`
	EarningsReducePnLPct float64 `yaml:"earnings_reduce_pnl_pct"`
	UDRatioWarning       float64 `yaml:"ud_ratio_warning"`
	DistributionVolume   float64 `yaml:"distribution_volume_mult"`

	Weights Weights `yaml:"weights"`
}

// Weights are the per-check score contributions.
type Weights struct {
	NoProgress      int `yaml:"no_progress"`
	Below50MA       int `yaml:"below_50ma"`
	Below200MA      int `yaml:"below_200ma"`
	DistributionDay int `yaml:"distribution_day"`
	ADRatingE       int `yaml:"ad_rating_e"`
	ADRatingD       int `yaml:"ad_rating_d"`
	WeakUDRatio     int `yaml:"weak_ud_ratio"`
	LateStage       int `yaml:"late_stage"`
	EarningsNegPnL  int `yaml:"earnings_negative_pnl"`
	EarningsThinPnL int `yaml:"earnings_thin_pnl"`
	DeepBase        int `yaml:"deep_base"`
}

// Rating thresholds over the summed score.
const (
	cautionThreshold  = 2
	warningThreshold  = 4
	criticalThreshold = 6
)

// Scorer computes a weighted position health score. Pure; safe for
// concurrent use.
type Scorer struct {
	cfg Config
}

// NewScorer builds a Scorer with defaults filled in.
func NewScorer(cfg Config) *Scorer {
	if cfg.TimeThresholdDays == 0 {
		cfg.TimeThresholdDays = 60
	}
	if cfg.TP1ProgressFraction == 0 {
		cfg.TP1ProgressFraction = 0.5
	}
	if cfg.TP1Pct == 0 {
		cfg.TP1Pct = 20.0
	}
	if cfg.DeepBaseThresholdPct == 0 {
		cfg.DeepBaseThresholdPct = 35.0
	}
	if cfg.EarningsWarningDays == 0 {
		cfg.EarningsWarningDays = 5
	}
	if cfg.EarningsReducePnLPct == 0 {
		cfg.EarningsReducePnLPct = 10.0
	}
	if cfg.UDRatioWarning == 0 {
		cfg.UDRatioWarning = 0.8
	}
	if cfg.DistributionVolume == 0 {
		cfg.DistributionVolume = 1.5
	}
	w := &cfg.Weights
	if w.NoProgress == 0 {
		w.NoProgress = 2
	}
	if w.Below50MA == 0 {
		w.Below50MA = 2
	}
	if w.Below200MA == 0 {
		w.Below200MA = 3
	}
	if w.DistributionDay == 0 {
		w.DistributionDay = 2
	}
	if w.ADRatingE == 0 {
		w.ADRatingE = 3
	}
	if w.ADRatingD == 0 {
		w.ADRatingD = 2
	}
	if w.WeakUDRatio == 0 {
		w.WeakUDRatio = 1
	}
	if w.LateStage == 0 {
		w.LateStage = 2
	}
	if w.EarningsNegPnL == 0 {
		w.EarningsNegPnL = 3
	}
	if w.EarningsThinPnL == 0 {
		w.EarningsThinPnL = 2
	}
	if w.DeepBase == 0 {
		w.DeepBase = 3
	}
	return &Scorer{cfg: cfg}
}

// Score evaluates every health check against the snapshot and sums the
// triggered weights. Watchlist and closed positions return a zero,
// Healthy result.
//
// The primary-warning selection order is deliberate: the moving-average
// violations and the earnings-with-negative-P&L check overwrite any
// previously chosen primary warning (last evaluated wins), while every
// other check only claims the slot when it is still empty. Alert text
// shown to users depends on this order; do not "fix" it.
func (s *Scorer) Score(snap *model.PositionSnapshot) model.HealthAssessment {
	if !snap.Active() {
		return model.HealthAssessment{
			Rating:  model.RatingHealthy,
			Action:  "N/A",
			Urgency: "none",
		}
	}

	var warnings []model.HealthWarning
	primary := ""
	w := s.cfg.Weights
	pnl := snap.PnLPct()

	// Time: long hold without progress, only while still building out.
	expectedProgress := s.cfg.TP1Pct * s.cfg.TP1ProgressFraction
	if snap.DaysInPosition > s.cfg.TimeThresholdDays && pnl < expectedProgress && snap.State <= model.StatePyramid2 {
		warnings = append(warnings, model.HealthWarning{
			Code:        "60d no progress",
			Description: fmt.Sprintf("%d+ days in position with <%.0f%% gain", s.cfg.TimeThresholdDays, expectedProgress),
			Weight:      w.NoProgress,
			Category:    "time",
			Severity:    "medium",
		})
		if primary == "" {
			primary = "60+ DAYS NO PROGRESS"
		}
	}

	// Moving averages. These overwrite the primary warning.
	if snap.CurrentPrice > 0 {
		if snap.MA50 > 0 && snap.CurrentPrice < snap.MA50 {
			warnings = append(warnings, model.HealthWarning{
				Code:        "<50MA",
				Description: "Price below 50-day moving average",
				Weight:      w.Below50MA,
				Category:    "technical",
				Severity:    "high",
			})
			primary = "BELOW 50 MA"
		}
		if snap.MA200 > 0 && snap.CurrentPrice < snap.MA200 {
			warnings = append(warnings, model.HealthWarning{
				Code:        "<200MA",
				Description: "Price below 200-day moving average",
				Weight:      w.Below200MA,
				Category:    "technical",
				Severity:    "high",
			})
			primary = "BELOW 200 MA"
		}
	}

	// Distribution day: down day on heavy volume.
	if snap.IsDownDay && snap.AvgVolume50 > 0 && float64(snap.Volume) > float64(snap.AvgVolume50)*s.cfg.DistributionVolume {
		warnings = append(warnings, model.HealthWarning{
			Code:        "DistDay",
			Description: "Distribution day detected (down on high volume)",
			Weight:      w.DistributionDay,
			Category:    "volume",
			Severity:    "medium",
		})
		if primary == "" {
			primary = "DISTRIBUTION DAY"
		}
	}

	// Accumulation/distribution rating.
	switch strings.ToUpper(snap.ADRating) {
	case "E":
		warnings = append(warnings, model.HealthWarning{
			Code:        "A/D:E",
			Description: "Heavy distribution (A/D Rating: E)",
			Weight:      w.ADRatingE,
			Category:    "fundamental",
			Severity:    "high",
		})
		if primary == "" {
			primary = "HEAVY DISTRIBUTION (A/D: E)"
		}
	case "D":
		warnings = append(warnings, model.HealthWarning{
			Code:        "A/D:D",
			Description: "Distribution detected (A/D Rating: D)",
			Weight:      w.ADRatingD,
			Category:    "fundamental",
			Severity:    "medium",
		})
	}

	// Up/down volume ratio.
	if snap.UpDownVolumeRatio > 0 && snap.UpDownVolumeRatio < s.cfg.UDRatioWarning {
		warnings = append(warnings, model.HealthWarning{
			Code:        "U/D<0.8",
			Description: fmt.Sprintf("Weak up/down volume ratio (%.2f)", snap.UpDownVolumeRatio),
			Weight:      w.WeakUDRatio,
			Category:    "volume",
			Severity:    "low",
		})
	}

	// Late stage base.
	if stage := snap.BaseStageNumber(); stage >= 4 {
		warnings = append(warnings, model.HealthWarning{
			Code:        "LateStage",
			Description: fmt.Sprintf("Late stage base (Stage %d)", stage),
			Weight:      w.LateStage,
			Category:    "fundamental",
			Severity:    "medium",
		})
		if primary == "" {
			primary = "LATE STAGE BASE"
		}
	}

	// Earnings proximity, weighted by P&L cushion.
	if snap.DaysToEarnings > 0 && snap.DaysToEarnings <= s.cfg.EarningsWarningDays {
		if pnl < 0 {
			warnings = append(warnings, model.HealthWarning{
				Code:        "ERneg",
				Description: fmt.Sprintf("Earnings in %dd with negative P&L", snap.DaysToEarnings),
				Weight:      w.EarningsNegPnL,
				Category:    "earnings",
				Severity:    "high",
			})
			primary = "EARNINGS - NEGATIVE P&L"
		} else if pnl < s.cfg.EarningsReducePnLPct {
			warnings = append(warnings, model.HealthWarning{
				Code:        "ER<10%",
				Description: fmt.Sprintf("Earnings in %dd with <%.0f%% profit cushion", snap.DaysToEarnings, s.cfg.EarningsReducePnLPct),
				Weight:      w.EarningsThinPnL,
				Category:    "earnings",
				Severity:    "medium",
			})
		}
	}

	// Base depth.
	if snap.BaseDepthPct > s.cfg.DeepBaseThresholdPct {
		warnings = append(warnings, model.HealthWarning{
			Code:        "TooDeep",
			Description: fmt.Sprintf("Base too deep (%.0f%%)", snap.BaseDepthPct),
			Weight:      w.DeepBase,
			Category:    "fundamental",
			Severity:    "high",
		})
		if primary == "" {
			primary = "BASE TOO DEEP"
		}
	}

	total := 0
	for _, warn := range warnings {
		total += warn.Weight
	}

	rating, action, urgency := classify(total)

	if primary == "" && len(warnings) > 0 {
		codes := make([]string, 0, 2)
		for i := 0; i < len(warnings) && i < 2; i++ {
			codes = append(codes, warnings[i].Code)
		}
		primary = strings.Join(codes, " + ")
	}

	return model.HealthAssessment{
		Score:          total,
		Rating:         rating,
		PrimaryWarning: primary,
		Warnings:       warnings,
		Action:         action,
		Urgency:        urgency,
	}
}

func classify(score int) (model.HealthRating, string, string) {
	switch {
	case score >= criticalThreshold:
		return model.RatingCritical, "SELL", "high"
	case score >= warningThreshold:
		return model.RatingWarning, "REDUCE", "medium"
	case score >= cautionThreshold:
		return model.RatingCaution, "MONITOR", "low"
	default:
		return model.RatingHealthy, "HOLD", "none"
	}
}

package levels

import (
	"errors"

	"PositionSentinel/internal/model"
)

// ErrInvalidEntry is returned when a non-positive entry price is supplied.
var ErrInvalidEntry = errors.New("entry price must be positive")

// Config holds the stop/target/pyramid percentages. Zero-valued fields
// fall back to the defaults below when the Calculator is constructed.
type Config struct {
	BaseStopPct      float64         `yaml:"base_stop_pct"`
	WarningBufferPct float64         `yaml:"warning_buffer_pct"`
	StageMultipliers map[int]float64 `yaml:"stage_multipliers"`

	TP1Pct float64 `yaml:"tp1_pct"`
	TP2Pct float64 `yaml:"tp2_pct"`

	Py1MinPct float64 `yaml:"py1_min_pct"`
	Py1MaxPct float64 `yaml:"py1_max_pct"`
	Py2MinPct float64 `yaml:"py2_min_pct"`
	Py2MaxPct float64 `yaml:"py2_max_pct"`

	TrailingActivationPct float64 `yaml:"trailing_activation_pct"`
	TrailingTrailPct      float64 `yaml:"trailing_trail_pct"`
}

// DefaultStageMultipliers tightens the base stop as bases mature:
// a stage 1 base keeps the full stop, stage 5 halves it.
var DefaultStageMultipliers = map[int]float64{
	1: 1.00,
	2: 0.85,
	3: 0.70,
	4: 0.60,
	5: 0.50,
}

// Calculator derives price levels from a position's entry context.
// All methods are pure; a Calculator is safe for concurrent use.
type Calculator struct {
	cfg Config
}

// NewCalculator builds a Calculator, filling unset config fields with
// the defaults (7% stop, 2-point warning buffer, +20%/+25% targets,
// 0-5% and 5-10% pyramid zones, 15%/8% trailing stop).
func NewCalculator(cfg Config) *Calculator {
	if cfg.BaseStopPct == 0 {
		cfg.BaseStopPct = 7.0
	}
	if cfg.WarningBufferPct == 0 {
		cfg.WarningBufferPct = 2.0
	}
	if cfg.StageMultipliers == nil {
		cfg.StageMultipliers = DefaultStageMultipliers
	}
	if cfg.TP1Pct == 0 {
		cfg.TP1Pct = 20.0
	}
	if cfg.TP2Pct == 0 {
		cfg.TP2Pct = 25.0
	}
	if cfg.Py1MaxPct == 0 {
		cfg.Py1MaxPct = 5.0
	}
	if cfg.Py2MinPct == 0 {
		cfg.Py2MinPct = 5.0
	}
	if cfg.Py2MaxPct == 0 {
		cfg.Py2MaxPct = 10.0
	}
	if cfg.TrailingActivationPct == 0 {
		cfg.TrailingActivationPct = 15.0
	}
	if cfg.TrailingTrailPct == 0 {
		cfg.TrailingTrailPct = 8.0
	}
	return &Calculator{cfg: cfg}
}

// Overrides allows per-position deviations from the configured
// percentages. Zero fields keep the configured value.
type Overrides struct {
	StopPct float64
	TP1Pct  float64
	TP2Pct  float64
}

// Compute derives all price levels for a position. The base stage
// string ("2a", "3c(2)") is reduced to its leading digits; unknown or
// out-of-range stages use a 1.0 multiplier.
func (c *Calculator) Compute(entryPrice float64, baseStage string, ov Overrides) (model.PriceLevels, error) {
	if entryPrice <= 0 {
		return model.PriceLevels{}, ErrInvalidEntry
	}

	mult, ok := c.cfg.StageMultipliers[stageNumber(baseStage)]
	if !ok {
		mult = 1.0
	}

	stopPct := c.cfg.BaseStopPct
	if ov.StopPct > 0 {
		stopPct = ov.StopPct
	}
	stopPct *= mult

	tp1Pct := c.cfg.TP1Pct
	if ov.TP1Pct > 0 {
		tp1Pct = ov.TP1Pct
	}
	tp2Pct := c.cfg.TP2Pct
	if ov.TP2Pct > 0 {
		tp2Pct = ov.TP2Pct
	}

	// A stop tighter than the warning buffer would push the warning
	// band above entry; halve the stop distance instead.
	warnPct := stopPct - c.cfg.WarningBufferPct
	if warnPct <= 0 {
		warnPct = stopPct / 2
	}

	return model.PriceLevels{
		HardStop:    entryPrice * (1 - stopPct/100),
		WarningStop: entryPrice * (1 - warnPct/100),
		TP1:         entryPrice * (1 + tp1Pct/100),
		TP2:         entryPrice * (1 + tp2Pct/100),
		Py1Min:      entryPrice * (1 + c.cfg.Py1MinPct/100),
		Py1Max:      entryPrice * (1 + c.cfg.Py1MaxPct/100),
		Py2Min:      entryPrice * (1 + c.cfg.Py2MinPct/100),
		Py2Max:      entryPrice * (1 + c.cfg.Py2MaxPct/100),
	}, nil
}

// TrailingStop returns the trailing stop price once the position's gain
// has reached the activation threshold. The stop trails the maximum
// price since entry and is floored at the entry price so an open profit
// can never become a realized loss.
func (c *Calculator) TrailingStop(entryPrice, maxPrice, currentGainPct float64) (float64, bool) {
	if currentGainPct < c.cfg.TrailingActivationPct {
		return 0, false
	}
	stop := maxPrice * (1 - c.cfg.TrailingTrailPct/100)
	if stop < entryPrice {
		stop = entryPrice
	}
	return stop, true
}

// DynamicStop returns the active stop: the higher of the stage-adjusted
// hard stop and the trailing stop when activated.
func (c *Calculator) DynamicStop(entryPrice float64, baseStage string, maxPrice, currentGainPct float64, ov Overrides) (float64, error) {
	lv, err := c.Compute(entryPrice, baseStage, ov)
	if err != nil {
		return 0, err
	}
	if trailing, ok := c.TrailingStop(entryPrice, maxPrice, currentGainPct); ok && trailing > lv.HardStop {
		return trailing, nil
	}
	return lv.HardStop, nil
}

// PyramidStatus answers whether the position's P&L sits in an
// actionable pyramid zone given its state and executed-add flags.
type PyramidStatus struct {
	PnLPct      float64
	Py1Ready    bool
	Py1Extended bool
	Py2Ready    bool
	Py2Extended bool
	Extended    bool
}

// Pyramid evaluates the pyramid zones for a position. Zone 1 applies to
// the initial entry state, zone 2 to the first-add state.
func (c *Calculator) Pyramid(entryPrice, currentPrice float64, state int, py1Done, py2Done bool) PyramidStatus {
	if entryPrice <= 0 {
		return PyramidStatus{}
	}
	pnl := (currentPrice - entryPrice) / entryPrice * 100
	lv := model.PriceLevels{
		Py1Min: entryPrice * (1 + c.cfg.Py1MinPct/100),
		Py1Max: entryPrice * (1 + c.cfg.Py1MaxPct/100),
		Py2Min: entryPrice * (1 + c.cfg.Py2MinPct/100),
		Py2Max: entryPrice * (1 + c.cfg.Py2MaxPct/100),
	}

	return PyramidStatus{
		PnLPct:      pnl,
		Py1Ready:    state == model.StateEntry && !py1Done && lv.InPy1Zone(currentPrice),
		Py1Extended: state == model.StateEntry && !py1Done && currentPrice > lv.Py1Max,
		Py2Ready:    state == model.StatePyramid1 && !py2Done && lv.InPy2Zone(currentPrice),
		Py2Extended: state == model.StatePyramid1 && !py2Done && currentPrice > lv.Py2Max,
		Extended:    lv.Extended(currentPrice),
	}
}

// ProfitStatus reports progress against the profit targets.
type ProfitStatus struct {
	PnLPct      float64
	TP1Hit      bool
	TP2Hit      bool
	TP1Distance float64 // percentage points remaining to TP1
	TP2Distance float64
}

// Profit evaluates the profit targets for a position.
func (c *Calculator) Profit(entryPrice, currentPrice float64, ov Overrides) ProfitStatus {
	if entryPrice <= 0 {
		return ProfitStatus{}
	}
	pnl := (currentPrice - entryPrice) / entryPrice * 100

	tp1 := c.cfg.TP1Pct
	if ov.TP1Pct > 0 {
		tp1 = ov.TP1Pct
	}
	tp2 := c.cfg.TP2Pct
	if ov.TP2Pct > 0 {
		tp2 = ov.TP2Pct
	}

	return ProfitStatus{
		PnLPct:      pnl,
		TP1Hit:      pnl >= tp1,
		TP2Hit:      pnl >= tp2,
		TP1Distance: tp1 - pnl,
		TP2Distance: tp2 - pnl,
	}
}

// TP1Pct exposes the configured first profit target percentage.
func (c *Calculator) TP1Pct() float64 { return c.cfg.TP1Pct }

func stageNumber(stage string) int {
	n := 0
	for _, ch := range stage {
		if ch == '(' {
			break
		}
		if ch >= '0' && ch <= '9' {
			n = n*10 + int(ch-'0')
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

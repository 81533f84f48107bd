package alert

import (
	"log"
	"strings"
	"sync"
	"time"

	"PositionSentinel/internal/model"
)

// Config holds the arbitration settings.
type Config struct {
	CooldownMinutes    int      `yaml:"cooldown_minutes"`
	EnableCooldown     bool     `yaml:"enable_cooldown"`
	DisableSuppression bool     `yaml:"disable_suppression"`
	SuppressingRegimes []string `yaml:"suppressing_regimes"`
}

type cooldownKey struct {
	symbol  string
	typ     model.AlertType
	subtype model.AlertSubtype
}

// Arbiter decides which candidate alerts are allowed to fire. It
// rewrites entry subtypes under a suppressing market regime and
// enforces a per-(symbol, type, original-subtype) cooldown window.
//
// The cooldown map is process-lifetime, in-memory state; concurrent
// Admit calls are serialized by a mutex so two admits can never land
// inside the same window.
type Arbiter struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	lastFired map[cooldownKey]time.Time
}

// NewArbiter builds an Arbiter. Cooldown enforcement defaults to
// disabled; suppression defaults to enabled with a 60-minute window.
func NewArbiter(cfg Config) *Arbiter {
	if cfg.CooldownMinutes == 0 {
		cfg.CooldownMinutes = 60
	}
	if cfg.SuppressingRegimes == nil {
		cfg.SuppressingRegimes = []string{"CORRECTION", "BEARISH", "DOWNTREND"}
	}
	return &Arbiter{
		cfg:       cfg,
		now:       time.Now,
		lastFired: make(map[cooldownKey]time.Time),
	}
}

// SetClock replaces the arbiter's clock. Test hook.
func (a *Arbiter) SetClock(now func() time.Time) { a.now = now }

// Admit decides whether a candidate may fire. The cooldown is keyed on
// the candidate's subtype before any suppression rewrite, so a
// regime-suppressed breakout still consumes the CONFIRMED slot and
// blocks a true confirmed alert inside the same window. force bypasses
// the cooldown check entirely.
func (a *Arbiter) Admit(cand model.SignalCandidate, force bool) (model.SignalCandidate, bool) {
	key := cooldownKey{cand.Symbol, cand.Type, cand.CooldownSubtype()}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cfg.EnableCooldown && !force {
		if last, seen := a.lastFired[key]; seen {
			window := time.Duration(a.cfg.CooldownMinutes) * time.Minute
			if a.now().Sub(last) < window {
				log.Printf("[INFO] alert blocked by cooldown: %s %s/%s", cand.Symbol, cand.Type, key.subtype)
				return model.SignalCandidate{}, false
			}
		}
	}

	// Regime suppression rewrites entry subtypes without discarding
	// the candidate's numeric context.
	if !a.cfg.DisableSuppression && a.suppressing(cand.MarketRegime) && suppressibleEntry(cand) {
		orig := cand.CooldownSubtype()
		cand.OrigSubtype = orig
		cand.Subtype = model.SubSuppressed
		cand.Severity = model.SeverityCritical
		if cand.Type == model.AlertPyramid {
			cand.Message = "[MARKET SUPPRESSED - was " + string(orig) + "] " + cand.Message
			cand.Action = "WAIT for market to confirm uptrend"
		}
		log.Printf("[INFO] entry suppressed by market regime: %s %s/%s", cand.Symbol, cand.Type, orig)
	}

	a.lastFired[key] = a.now()
	return cand, true
}

// Clear drops every cooldown entry for a symbol.
func (a *Arbiter) Clear(symbol string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key := range a.lastFired {
		if key.symbol == symbol {
			delete(a.lastFired, key)
		}
	}
}

// ClearAll drops all cooldown entries.
func (a *Arbiter) ClearAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastFired = make(map[cooldownKey]time.Time)
}

// Backdate shifts the stored timestamp for a key into the past. Test
// hook for exercising window expiry.
func (a *Arbiter) Backdate(symbol string, typ model.AlertType, subtype model.AlertSubtype, by time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := cooldownKey{symbol, typ, subtype}
	if last, ok := a.lastFired[key]; ok {
		a.lastFired[key] = last.Add(-by)
	}
}

// suppressibleEntry reports whether the candidate asks to put new money
// to work, which regime suppression vetoes.
func suppressibleEntry(cand model.SignalCandidate) bool {
	switch {
	case cand.Type == model.AlertBreakout && cand.CooldownSubtype() == model.SubConfirmed:
		return true
	case cand.Type == model.AlertPyramid:
		switch cand.CooldownSubtype() {
		case model.SubP1Ready, model.SubP2Ready:
			return true
		}
	}
	return false
}

func (a *Arbiter) suppressing(regime string) bool {
	if regime == "" {
		return false
	}
	up := strings.ToUpper(regime)
	for _, r := range a.cfg.SuppressingRegimes {
		if up == strings.ToUpper(r) {
			return true
		}
	}
	return false
}

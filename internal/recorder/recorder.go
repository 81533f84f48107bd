package recorder

import "PositionSentinel/internal/model"

// HealthSnapshot is one position's health reading at recording time.
type HealthSnapshot struct {
	Symbol     string
	State      int
	Price      float64
	PnLPct     float64
	Assessment model.HealthAssessment
}

// EODRecord is the end-of-day roll-up for one position.
type EODRecord struct {
	Symbol       string
	State        int
	Close        float64
	PnLPct       float64
	HealthScore  int
	Rating       string
	MarketRegime string
}

// Recorder persists alert and health history for later analysis.
type Recorder interface {
	RecordAlert(cand *model.SignalCandidate, delivered bool) error
	RecordHealth(snap *HealthSnapshot) error
	RecordEOD(rec *EODRecord) error
	Close() error
}

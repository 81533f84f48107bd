package model

// HealthRating buckets the total health score.
type HealthRating string

const (
	RatingHealthy  HealthRating = "HEALTHY"
	RatingCaution  HealthRating = "CAUTION"
	RatingWarning  HealthRating = "WARNING"
	RatingCritical HealthRating = "CRITICAL"
)

// HealthWarning is one triggered health check.
type HealthWarning struct {
	Code        string // short code, e.g. "<50MA"
	Description string
	Weight      int
	Category    string // time, technical, volume, fundamental, earnings
	Severity    string // low, medium, high
}

// HealthAssessment is the complete scoring result for one position.
type HealthAssessment struct {
	Score          int
	Rating         HealthRating
	PrimaryWarning string
	Warnings       []HealthWarning
	Action         string // HOLD, MONITOR, REDUCE, SELL, N/A
	Urgency        string // none, low, medium, high
}

// WarningCodes returns the short codes of all triggered warnings.
func (h *HealthAssessment) WarningCodes() []string {
	codes := make([]string, len(h.Warnings))
	for i, w := range h.Warnings {
		codes[i] = w.Code
	}
	return codes
}

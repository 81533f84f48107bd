package signal

import "time"

// Session describes the trading session window used to time-adjust
// relative volume. Defaults to the 9:30-16:00 New York session.
type Session struct {
	Location     string `yaml:"location"`
	OpenHour     int    `yaml:"open_hour"`
	OpenMinute   int    `yaml:"open_minute"`
	TotalMinutes int    `yaml:"total_minutes"`
}

func defaultSession() Session {
	return Session{
		Location:     "America/New_York",
		OpenHour:     9,
		OpenMinute:   30,
		TotalMinutes: 390,
	}
}

// elapsedMinutes returns the number of session minutes elapsed at t,
// clamped to [1, TotalMinutes]. Before the open it returns 1 so early
// readings never divide by zero; after the close the full session.
func (s Session) elapsedMinutes(t time.Time) float64 {
	loc, err := time.LoadLocation(s.Location)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	open := time.Date(local.Year(), local.Month(), local.Day(), s.OpenHour, s.OpenMinute, 0, 0, loc)

	elapsed := local.Sub(open).Minutes()
	if elapsed < 1 {
		return 1
	}
	if elapsed > float64(s.TotalMinutes) {
		return float64(s.TotalMinutes)
	}
	return elapsed
}

// RVOL computes the time-adjusted relative volume: observed volume
// divided by the volume expected by this point of the session given the
// daily average. Returns 0 when either operand is non-positive, so a
// 10 AM reading is compared against a tenth of a day, not a full day.
func (s Session) RVOL(currentVolume, avgVolume int64, now time.Time) float64 {
	if currentVolume <= 0 || avgVolume <= 0 {
		return 0
	}

	total := float64(s.TotalMinutes)
	if total <= 0 {
		return 0
	}
	dayFraction := s.elapsedMinutes(now) / total
	if dayFraction > 1 {
		dayFraction = 1
	}
	if dayFraction < 1/total {
		dayFraction = 1 / total
	}

	expected := float64(avgVolume) * dayFraction
	if expected <= 0 {
		return 0
	}
	return float64(currentVolume) / expected
}

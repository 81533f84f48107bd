package position

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Date is a calendar day in the book file, "2006-01-02".
type Date struct {
	t time.Time
}

// Time returns the underlying time, zero when the date was absent.
func (d Date) Time() time.Time { return d.t }

// UnmarshalYAML parses a bare YYYY-MM-DD scalar; empty means unset.
func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	if value.Value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.t = t
	return nil
}

// MarshalYAML renders the date back to YYYY-MM-DD.
func (d Date) MarshalYAML() (interface{}, error) {
	if d.t.IsZero() {
		return "", nil
	}
	return d.t.Format("2006-01-02"), nil
}

// Record is one entry in the position book file: either a watchlist
// candidate (state 0) or an active position.
type Record struct {
	Symbol     string  `yaml:"symbol"`
	State      int     `yaml:"state"`
	Shares     int     `yaml:"shares"`
	EntryPrice float64 `yaml:"entry_price"`
	EntryDate  Date    `yaml:"entry_date"`

	Pivot        float64 `yaml:"pivot"`
	PivotDate    Date    `yaml:"pivot_date"`
	BaseStage    string  `yaml:"base_stage"`
	BaseDepthPct float64 `yaml:"base_depth_pct"`
	ADRating     string  `yaml:"ad_rating"`

	BreakoutDate Date `yaml:"breakout_date"`
	EarningsDate Date `yaml:"earnings_date"`

	Py1Done       bool `yaml:"py1_done"`
	Py2Done       bool `yaml:"py2_done"`
	TP1Sold       bool `yaml:"tp1_sold"`
	TP2Sold       bool `yaml:"tp2_sold"`
	EightWeekHold bool `yaml:"eight_week_hold"`

	StopOverridePct float64 `yaml:"stop_override_pct"`
	TP1OverridePct  float64 `yaml:"tp1_override_pct"`
	TP2OverridePct  float64 `yaml:"tp2_override_pct"`
}

type bookFile struct {
	Positions []Record `yaml:"positions"`
}

// LoadRecords reads the position book from a YAML file. A missing file
// is an empty book, not an error.
func LoadRecords(filePath string) ([]Record, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var file bookFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	for i := range file.Positions {
		if file.Positions[i].Symbol == "" {
			return nil, fmt.Errorf("position %d: symbol is required", i)
		}
	}
	return file.Positions, nil
}

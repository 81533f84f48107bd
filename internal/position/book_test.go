package position

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"PositionSentinel/internal/model"
)

const sampleBook = `
positions:
  - symbol: NVDA
    state: 1
    shares: 100
    entry_price: 120.50
    entry_date: 2026-07-15
    pivot: 118.00
    pivot_date: 2026-07-10
    base_stage: "2a"
    base_depth_pct: 22
    ad_rating: "B"
    earnings_date: 2026-08-28
  - symbol: PLTR
    state: 0
    pivot: 45.00
    pivot_date: 2026-08-01
    base_stage: "1"
`

func writeBook(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "positions.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewBook_LoadsRecords(t *testing.T) {
	b, err := NewBook(writeBook(t, sampleBook))
	if err != nil {
		t.Fatal(err)
	}
	got := b.Symbols()
	want := []string{"NVDA", "PLTR"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("symbols = %v, want %v", got, want)
	}
}

func TestNewBook_MissingFileIsEmpty(t *testing.T) {
	b, err := NewBook(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Symbols()) != 0 {
		t.Errorf("expected empty book, got %v", b.Symbols())
	}
}

func TestSnapshot_AssemblesFields(t *testing.T) {
	b, err := NewBook(writeBook(t, sampleBook))
	if err != nil {
		t.Fatal(err)
	}
	b.now = func() time.Time { return time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC) }

	quote := model.Quote{Price: 130, Volume: 2_000_000, DayHigh: 131, DayLow: 128, PrevClose: 131}
	tech := model.Technicals{EMA21: 126, MA50: 122, MA200: 110, AvgVolume50: 1_500_000, UpDownVolumeRatio: 1.3}

	snap := b.Snapshot("NVDA", quote, tech, "CONFIRMED_UPTREND")
	if snap == nil {
		t.Fatal("expected snapshot for NVDA")
	}
	if snap.State != model.StateEntry || snap.EntryPrice != 120.50 || snap.PivotPrice != 118 {
		t.Errorf("record fields not carried over: %+v", snap)
	}
	if !snap.IsDownDay {
		t.Error("price below previous close should be a down day")
	}
	if snap.DaysInPosition != 40 {
		t.Errorf("expected 40 days in position, got %d", snap.DaysInPosition)
	}
	if snap.DaysToEarnings != 3 {
		t.Errorf("expected 3 days to earnings, got %d", snap.DaysToEarnings)
	}
	if snap.MaxPrice != 130 {
		t.Errorf("expected max price 130, got %.2f", snap.MaxPrice)
	}

	if b.Snapshot("TSLA", quote, tech, "") != nil {
		t.Error("unknown symbol should return nil")
	}
}

func TestSnapshot_MaxPriceWatermark(t *testing.T) {
	b, err := NewBook(writeBook(t, sampleBook))
	if err != nil {
		t.Fatal(err)
	}

	tech := model.Technicals{}
	b.Snapshot("NVDA", model.Quote{Price: 140}, tech, "")
	snap := b.Snapshot("NVDA", model.Quote{Price: 133}, tech, "")
	if snap.MaxPrice != 140 {
		t.Errorf("watermark should hold at 140, got %.2f", snap.MaxPrice)
	}

	// Watchlist entries don't accumulate a watermark across cycles.
	b.Snapshot("PLTR", model.Quote{Price: 50}, tech, "")
	snap = b.Snapshot("PLTR", model.Quote{Price: 46}, tech, "")
	if snap.MaxPrice != 46 {
		t.Errorf("watchlist watermark should follow the quote, got %.2f", snap.MaxPrice)
	}
}

func TestLoadRecords_RejectsMissingSymbol(t *testing.T) {
	path := writeBook(t, "positions:\n  - state: 1\n")
	if _, err := LoadRecords(path); err == nil {
		t.Fatal("expected error for record without symbol")
	}
}

func TestReload_KeepsWatermarkForSurvivors(t *testing.T) {
	path := writeBook(t, sampleBook)
	b, err := NewBook(path)
	if err != nil {
		t.Fatal(err)
	}
	b.Snapshot("NVDA", model.Quote{Price: 150}, model.Technicals{}, "")

	if err := b.Reload(); err != nil {
		t.Fatal(err)
	}
	snap := b.Snapshot("NVDA", model.Quote{Price: 130}, model.Technicals{}, "")
	if snap.MaxPrice != 150 {
		t.Errorf("watermark should survive a reload, got %.2f", snap.MaxPrice)
	}
}

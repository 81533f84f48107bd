package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"PositionSentinel/internal/model"
)

// SQLiteRecorder persists alert and health history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so readers don't block the poll cycle's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			symbol        TEXT NOT NULL,
			alert_type    TEXT NOT NULL,
			subtype       TEXT NOT NULL,
			orig_subtype  TEXT,
			severity      TEXT,
			message       TEXT,
			action        TEXT,
			price         REAL,
			pivot         REAL,
			entry_price   REAL,
			distance_pct  REAL,
			pnl_pct       REAL,
			volume_ratio  REAL,
			health_score  INTEGER,
			market_regime TEXT,
			delivered     INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_symbol ON alerts(symbol)`,

		`CREATE TABLE IF NOT EXISTS health_snapshots (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			state           INTEGER,
			price           REAL,
			pnl_pct         REAL,
			score           INTEGER,
			rating          TEXT,
			primary_warning TEXT,
			warning_codes   TEXT,
			action          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_health_ts ON health_snapshots(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_health_symbol ON health_snapshots(symbol)`,

		`CREATE TABLE IF NOT EXISTS eod_records (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			symbol        TEXT NOT NULL,
			state         INTEGER,
			close         REAL,
			pnl_pct       REAL,
			health_score  INTEGER,
			rating        TEXT,
			market_regime TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_eod_ts ON eod_records(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAlert(cand *model.SignalCandidate, delivered bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := cand.Time.Unix()
	if cand.Time.IsZero() {
		ts = time.Now().Unix()
	}
	deliveredInt := 0
	if delivered {
		deliveredInt = 1
	}

	_, err := r.db.Exec(`INSERT INTO alerts
		(timestamp, symbol, alert_type, subtype, orig_subtype, severity,
		 message, action, price, pivot, entry_price,
		 distance_pct, pnl_pct, volume_ratio, health_score, market_regime, delivered)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts, cand.Symbol, string(cand.Type), string(cand.Subtype), string(cand.CooldownSubtype()), cand.Severity,
		cand.Message, cand.Action, cand.Price, cand.Pivot, cand.EntryPrice,
		cand.DistancePct, cand.PnLPct, cand.VolumeRatio, cand.HealthScore, cand.MarketRegime, deliveredInt,
	)
	return err
}

func (r *SQLiteRecorder) RecordHealth(snap *HealthSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO health_snapshots
		(timestamp, symbol, state, price, pnl_pct, score, rating, primary_warning, warning_codes, action)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), snap.Symbol, snap.State, snap.Price, snap.PnLPct,
		snap.Assessment.Score, string(snap.Assessment.Rating), snap.Assessment.PrimaryWarning,
		strings.Join(snap.Assessment.WarningCodes(), ","), snap.Assessment.Action,
	)
	return err
}

func (r *SQLiteRecorder) RecordEOD(rec *EODRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO eod_records
		(timestamp, symbol, state, close, pnl_pct, health_score, rating, market_regime)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Symbol, rec.State, rec.Close, rec.PnLPct,
		rec.HealthScore, rec.Rating, rec.MarketRegime,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

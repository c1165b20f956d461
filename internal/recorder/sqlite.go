package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"PriceSentinel/internal/logger"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists report history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the poller writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.WithComponent("recorder").WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_reports (
			date        TEXT PRIMARY KEY,
			reported_at INTEGER NOT NULL,
			has_data    INTEGER NOT NULL,
			open        TEXT,
			close       TEXT,
			high        TEXT,
			low         TEXT,
			change      TEXT,
			volatility  TEXT,
			samples     INTEGER,
			report_text TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS fetch_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			cycle_id  TEXT,
			source    TEXT,
			status    TEXT,
			price     TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_ts ON fetch_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordDailyReport stores a report; re-reporting the same day replaces the row.
func (r *SQLiteRecorder) RecordDailyReport(rep *DailyReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var open, closePx, high, low, change, vol sql.NullString
	var samples sql.NullInt64
	hasData := 0
	if b := rep.Bar; b != nil {
		hasData = 1
		open = sql.NullString{String: b.Open.String(), Valid: true}
		closePx = sql.NullString{String: b.Close.String(), Valid: true}
		high = sql.NullString{String: b.High.String(), Valid: true}
		low = sql.NullString{String: b.Low.String(), Valid: true}
		change = sql.NullString{String: b.Change.String(), Valid: true}
		vol = sql.NullString{String: b.Volatility.String(), Valid: true}
		samples = sql.NullInt64{Int64: int64(b.Samples), Valid: true}
	}

	_, err := r.db.Exec(`INSERT OR REPLACE INTO daily_reports
		(date, reported_at, has_data, open, close, high, low, change, volatility, samples, report_text)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		rep.Date.Format(dateLayout), time.Now().Unix(), hasData,
		open, closePx, high, low, change, vol, samples, rep.Text,
	)
	return err
}

func (r *SQLiteRecorder) RecordFetch(evt *FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO fetch_events
		(timestamp, cycle_id, source, status, price, error)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), evt.CycleID, evt.Source, evt.Status, evt.Price, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) LastReportedDate() (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var date string
	err := r.db.QueryRow(`SELECT date FROM daily_reports ORDER BY date DESC LIMIT 1`).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	return d, true, nil
}

func (r *SQLiteRecorder) Close() error {
	logger.WithComponent("recorder").Info("closing sqlite recorder")
	return r.db.Close()
}

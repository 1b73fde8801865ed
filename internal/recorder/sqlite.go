package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"RangeScout/internal/model"
	"RangeScout/internal/scanner"
)

// SQLiteRecorder persists scan history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets readers query history while a scan is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id                TEXT PRIMARY KEY,
			mode              TEXT NOT NULL,
			started_at        INTEGER NOT NULL,
			finished_at       INTEGER NOT NULL,
			reference_start   TEXT,
			reference_end     TEXT,
			evaluation_start  TEXT,
			evaluation_end    TEXT,
			proximity_pct     REAL,
			retest_tol_pct    REAL,
			min_bounce_pct    REAL,
			requested         INTEGER,
			analyzed          INTEGER,
			matched           INTEGER,
			skipped           INTEGER,
			status            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS scan_results (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id              TEXT NOT NULL REFERENCES scan_runs(id),
			match_rank          INTEGER NOT NULL,
			symbol              TEXT NOT NULL,
			reference_low       REAL,
			reference_low_date  TEXT,
			reference_high      REAL,
			reference_high_date TEXT,
			current_price       REAL,
			price_date          TEXT,
			distance_low_pct    REAL,
			distance_high_pct   REAL,
			evaluation_low      REAL,
			touch_count         INTEGER,
			bounce_pct          REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON scan_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_symbol ON scan_results(symbol)`,

		`CREATE TABLE IF NOT EXISTS scan_skips (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  TEXT NOT NULL REFERENCES scan_runs(id),
			symbol  TEXT NOT NULL,
			reason  TEXT NOT NULL,
			detail  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_skips_run ON scan_skips(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", strings.TrimSpace(s)[:30], err)
		}
	}
	return nil
}

const dateLayout = "2006-01-02"

// RecordScan writes the run, its matches in rank order and its skips in one transaction.
func (r *SQLiteRecorder) RecordScan(report *scanner.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	req := report.Request
	_, err = tx.Exec(`INSERT INTO scan_runs
		(id, mode, started_at, finished_at,
		 reference_start, reference_end, evaluation_start, evaluation_end,
		 proximity_pct, retest_tol_pct, min_bounce_pct,
		 requested, analyzed, matched, skipped, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		report.ID, string(report.Mode), report.StartedAt.Unix(), report.FinishedAt.Unix(),
		report.Reference.Start.Format(dateLayout), report.Reference.End.Format(dateLayout),
		report.Evaluation.Start.Format(dateLayout), report.Evaluation.End.Format(dateLayout),
		req.ProximityThresholdPct, req.RetestTolerancePct, req.MinBouncePct,
		len(req.Symbols), len(report.Analyzed), len(report.Matches), len(report.Skipped),
		string(report.Status()),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, res := range report.Matches {
		b := res.Base()
		var evalLow, bounce sql.NullFloat64
		var touches sql.NullInt64
		if rt, ok := res.(model.RetestResult); ok {
			evalLow = sql.NullFloat64{Float64: rt.EvaluationLow, Valid: true}
			bounce = sql.NullFloat64{Float64: rt.BouncePct, Valid: true}
			touches = sql.NullInt64{Int64: int64(rt.TouchCount), Valid: true}
		}
		_, err := tx.Exec(`INSERT INTO scan_results
			(run_id, match_rank, symbol, reference_low, reference_low_date, reference_high, reference_high_date,
			 current_price, price_date, distance_low_pct, distance_high_pct,
			 evaluation_low, touch_count, bounce_pct)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			report.ID, i+1, string(b.Symbol),
			b.ReferenceLow, b.ReferenceLowDate.Format(dateLayout),
			b.ReferenceHigh, b.ReferenceHighDate.Format(dateLayout),
			b.CurrentPrice, b.CurrentDate.Format(dateLayout),
			b.DistanceToLowPct, b.DistanceToHighPct,
			evalLow, touches, bounce,
		)
		if err != nil {
			return fmt.Errorf("insert result %s: %w", b.Symbol, err)
		}
	}

	for _, s := range report.Skipped {
		if _, err := tx.Exec(`INSERT INTO scan_skips (run_id, symbol, reason, detail) VALUES (?,?,?,?)`,
			report.ID, string(s.Symbol), string(s.Reason), s.Detail); err != nil {
			return fmt.Errorf("insert skip %s: %w", s.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Debug("scan recorded", zap.String("scan_id", report.ID), zap.Int("matches", len(report.Matches)))
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(`SELECT id, mode, started_at, finished_at, requested, analyzed, matched, skipped, status
		FROM scan_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var started, finished int64
		if err := rows.Scan(&s.ID, &s.Mode, &started, &finished, &s.Requested, &s.Analyzed, &s.Matched, &s.Skipped, &s.Status); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		s.StartedAt = time.Unix(started, 0).UTC()
		s.FinishedAt = time.Unix(finished, 0).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}

// Package store keeps the run history ledger in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"autoctl/internal/logging"
	"autoctl/internal/runner"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// RunLog records solver runs. It implements runner.Recorder.
type RunLog struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

var _ runner.Recorder = (*RunLog)(nil)

// Open opens (creating if needed) the ledger at path. ":memory:" gives a
// private in-memory ledger.
func Open(path string) (*RunLog, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	l := &RunLog{db: db, dbPath: path}
	if err := l.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.StoreDebug("Run log opened at %s", path)
	return l, nil
}

func (l *RunLog) initialize() error {
	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		equation TEXT NOT NULL DEFAULT '',
		command TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		exit_code INTEGER NOT NULL DEFAULT 0,
		saved_as TEXT NOT NULL DEFAULT '',
		appended_to TEXT NOT NULL DEFAULT '',
		branches INTEGER NOT NULL DEFAULT 0,
		points INTEGER NOT NULL DEFAULT 0,
		labels INTEGER NOT NULL DEFAULT 0,
		cpu_ms INTEGER NOT NULL DEFAULT 0,
		max_rss_bytes INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	if _, err := l.db.Exec(runsTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return RunMigrations(l.db)
}

// Close closes the database connection.
func (l *RunLog) Close() error {
	return l.db.Close()
}

// Path returns the database path.
func (l *RunLog) Path() string { return l.dbPath }

// Record stores rec, replacing an earlier record with the same id.
func (l *RunLog) Record(ctx context.Context, rec runner.RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs
		 (id, equation, command, started_at, duration_ms, exit_code, saved_as, appended_to, branches, points, labels, cpu_ms, max_rss_bytes, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Equation, rec.Command, rec.StartedAt.UTC().Format(timeLayout),
		rec.Duration.Milliseconds(), rec.ExitCode, rec.SavedAs, rec.AppendedTo,
		rec.Branches, rec.Points, rec.Labels, rec.CPUTimeMs, rec.MaxRSSBytes, rec.Error,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to record run %s: %v", rec.ID, err)
		return err
	}
	logging.StoreDebug("Recorded run %s (equation=%s exit=%d)", rec.ID, rec.Equation, rec.ExitCode)
	return nil
}

// Recent returns up to limit runs, newest first. A non-positive limit
// defaults to 20.
func (l *RunLog) Recent(ctx context.Context, limit int) ([]runner.RunRecord, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Recent")
	defer timer.Stop()

	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, equation, command, started_at, duration_ms, exit_code, saved_as, appended_to, branches, points, labels, cpu_ms, max_rss_bytes, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []runner.RunRecord
	for rows.Next() {
		var (
			rec       runner.RunRecord
			id        string
			startedAt string
			ms        int64
		)
		if err := rows.Scan(&id, &rec.Equation, &rec.Command, &startedAt, &ms, &rec.ExitCode,
			&rec.SavedAs, &rec.AppendedTo, &rec.Branches, &rec.Points, &rec.Labels, &rec.CPUTimeMs, &rec.MaxRSSBytes, &rec.Error); err != nil {
			return nil, err
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			logging.StoreWarn("Skipping run with bad id %q: %v", id, err)
			continue
		}
		if rec.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			logging.StoreWarn("Run %s has unparseable start time %q", id, startedAt)
		}
		rec.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of recorded runs.
func (l *RunLog) Count(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var n int
	err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&n)
	return n, err
}

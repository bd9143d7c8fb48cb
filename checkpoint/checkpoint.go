// CLAUDE:SUMMARY SQLite-backed run checkpoints: state, resume position, resolved IDs, final report.
// Package checkpoint persists publication run state in SQLite so an
// interrupted run can resume at batch granularity.
//
// One row per run. The row carries the resume position, the placeholder
// table resolved so far, and, once the run finishes, the full report
// artifact.
//
// Schema (created automatically by Open):
//
//	CREATE TABLE IF NOT EXISTS runs (
//	    run_id      TEXT PRIMARY KEY,
//	    dest_id     TEXT NOT NULL,
//	    state       TEXT NOT NULL,                -- running|done|partial|failed|cancelled
//	    next_batch  INTEGER NOT NULL DEFAULT 0,
//	    root_url    TEXT NOT NULL DEFAULT '',
//	    resolved    TEXT NOT NULL DEFAULT '{}',   -- placeholder -> ID, JSON
//	    report_json TEXT NOT NULL DEFAULT '',
//	    created_at  INTEGER NOT NULL,             -- milliseconds since epoch
//	    updated_at  INTEGER NOT NULL
//	);
package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/depeche/plan"
)

// ErrNotFound is returned by Load for an unknown run ID.
var ErrNotFound = errors.New("checkpoint: run not found")

// Run is one persisted publication run.
type Run struct {
	RunID     string
	DestID    string
	State     string
	NextBatch int
	RootURL   string
	Resolved  map[plan.Placeholder]string
	Report    json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resumable reports whether the run stopped short of completion.
func (r *Run) Resumable() bool {
	return r.State == "running" || r.State == "cancelled" || r.State == "failed"
}

// Store is the checkpoint handle. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the checkpoint database with WAL and the
// usual production pragmas, then ensures the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("checkpoint: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	pragmas := `
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 10000;
		PRAGMA synchronous = NORMAL;
		PRAGMA foreign_keys = ON;
	`
	if _, err := db.Exec(pragmas); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: pragmas: %w", err)
	}
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			dest_id     TEXT NOT NULL,
			state       TEXT NOT NULL,
			next_batch  INTEGER NOT NULL DEFAULT 0,
			root_url    TEXT NOT NULL DEFAULT '',
			resolved    TEXT NOT NULL DEFAULT '{}',
			report_json TEXT NOT NULL DEFAULT '',
			created_at  INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Begin records a fresh run in the running state.
func (s *Store) Begin(ctx context.Context, runID, destID string) error {
	now := time.Now().UnixMilli()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, dest_id, state, created_at, updated_at) VALUES (?,?,?,?,?)`,
		runID, destID, "running", now, now)
	if err != nil {
		return fmt.Errorf("checkpoint: begin run %s: %w", runID, err)
	}
	return nil
}

// Advance updates the resume position and placeholder table of a running run.
func (s *Store) Advance(ctx context.Context, runID string, nextBatch int, rootURL string, resolved map[plan.Placeholder]string) error {
	blob, err := json.Marshal(resolved)
	if err != nil {
		return fmt.Errorf("checkpoint: encode resolved: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET next_batch = ?, root_url = ?, resolved = ?, updated_at = ? WHERE run_id = ?`,
		nextBatch, rootURL, string(blob), time.Now().UnixMilli(), runID)
	if err != nil {
		return fmt.Errorf("checkpoint: advance run %s: %w", runID, err)
	}
	return ensureRowHit(res, runID)
}

// Finish records the run's terminal state and report artifact.
func (s *Store) Finish(ctx context.Context, runID, state string, report json.RawMessage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET state = ?, report_json = ?, updated_at = ? WHERE run_id = ?`,
		state, string(report), time.Now().UnixMilli(), runID)
	if err != nil {
		return fmt.Errorf("checkpoint: finish run %s: %w", runID, err)
	}
	return ensureRowHit(res, runID)
}

// Load fetches one run by ID.
func (s *Store) Load(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, dest_id, state, next_batch, root_url, resolved, report_json, created_at, updated_at
		FROM runs WHERE run_id = ?`, runID)
	return scanRun(row)
}

// Latest returns the most recently updated run, or ErrNotFound when the
// store is empty.
func (s *Store) Latest(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, dest_id, state, next_batch, root_url, resolved, report_json, created_at, updated_at
		FROM runs ORDER BY updated_at DESC LIMIT 1`)
	return scanRun(row)
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	var resolved, report string
	var created, updated int64
	err := row.Scan(&r.RunID, &r.DestID, &r.State, &r.NextBatch, &r.RootURL, &resolved, &report, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint: scan run: %w", err)
	}
	if resolved != "" {
		if err := json.Unmarshal([]byte(resolved), &r.Resolved); err != nil {
			return nil, fmt.Errorf("checkpoint: decode resolved for %s: %w", r.RunID, err)
		}
	}
	if report != "" {
		r.Report = json.RawMessage(report)
	}
	r.CreatedAt = time.UnixMilli(created)
	r.UpdatedAt = time.UnixMilli(updated)
	return &r, nil
}

func ensureRowHit(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return fmt.Errorf("checkpoint: run %s: %w", runID, ErrNotFound)
	}
	return nil
}

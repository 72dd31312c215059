// Package store persists the history of fixity runs in a SQLite database,
// so operators can review what was created, validated, compared, or staged
// without digging through report directories.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for run history.
type Store struct {
	db *sql.DB
}

// Run is one recorded fixity run.
type Run struct {
	ID          string
	Action      string
	PrimaryPath string
	ReportDir   string
	Started     time.Time
	Finished    time.Time
	Interrupted bool
	Outcomes    []OutcomeCount
}

// OutcomeCount is the tally for one outcome kind within a run.
type OutcomeCount struct {
	Kind  string
	Count int64
	Bytes int64
}

// Open creates or opens the run-history database at the given path. WAL
// mode allows reads during writes; the pool is limited to a single
// connection because SQLite supports one writer at a time. Safe to call
// repeatedly; the schema is idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun writes one run and its outcome tallies atomically.
func (s *Store) RecordRun(run Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, action, primary_path, report_dir, started_at, finished_at, interrupted)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Action, run.PrimaryPath, run.ReportDir,
		run.Started.UTC().Format(time.RFC3339), run.Finished.UTC().Format(time.RFC3339),
		boolToInt(run.Interrupted),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, oc := range run.Outcomes {
		_, err = tx.Exec(
			`INSERT INTO run_outcomes (run_id, kind, count, bytes) VALUES (?, ?, ?, ?)`,
			run.ID, oc.Kind, oc.Count, oc.Bytes,
		)
		if err != nil {
			return fmt.Errorf("insert outcome %s: %w", oc.Kind, err)
		}
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first, with their outcome
// tallies attached.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, action, primary_path, report_dir, started_at, finished_at, interrupted
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		var interrupted int
		if err := rows.Scan(&r.ID, &r.Action, &r.PrimaryPath, &r.ReportDir,
			&started, &finished, &interrupted); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Started, _ = time.Parse(time.RFC3339, started)
		r.Finished, _ = time.Parse(time.RFC3339, finished)
		r.Interrupted = interrupted != 0
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		outcomes, err := s.runOutcomes(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Outcomes = outcomes
	}
	return runs, nil
}

func (s *Store) runOutcomes(runID string) ([]OutcomeCount, error) {
	rows, err := s.db.Query(
		`SELECT kind, count, bytes FROM run_outcomes WHERE run_id = ? ORDER BY kind`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []OutcomeCount
	for rows.Next() {
		var oc OutcomeCount
		if err := rows.Scan(&oc.Kind, &oc.Count, &oc.Bytes); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, oc)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

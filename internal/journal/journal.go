// Package journal persists rip history in a local SQLite database.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// schemaVersion is the current schema version. Bump this when the schema
// changes; stale databases must be deleted by the operator.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was written by an incompatible
// version.
var ErrSchemaMismatch = errors.New("journal schema version mismatch")

const schemaSQL = `
CREATE TABLE schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE rip_runs (
    run_id          TEXT PRIMARY KEY,
    job_id          INTEGER NOT NULL,
    device          TEXT NOT NULL,
    title           TEXT NOT NULL,
    media_type      TEXT NOT NULL,
    exit_code       INTEGER,
    error_count     INTEGER NOT NULL DEFAULT 0,
    titles_ripped   INTEGER NOT NULL DEFAULT 0,
    status          TEXT NOT NULL,
    detail          TEXT,
    started_at      TEXT NOT NULL,
    finished_at     TEXT
);

CREATE INDEX idx_rip_runs_started_at ON rip_runs(started_at);
`

// Run is one rip job's journal row.
type Run struct {
	RunID        string
	JobID        int
	Device       string
	Title        string
	MediaType    string
	ExitCode     int
	ErrorCount   int
	TitlesRipped int
	Status       string
	Detail       string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Journal manages rip history persistence backed by SQLite.
type Journal struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{db: db, path: path}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Path returns the database file path.
func (j *Journal) Path() string { return j.path }

func (j *Journal) initSchema(ctx context.Context) error {
	var tableExists int
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := j.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := j.db.QueryRowContext(ctx,
		"SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, j.path)
	}
	return nil
}

// StartRun inserts the opening row for a rip job.
func (j *Journal) StartRun(ctx context.Context, run Run) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO rip_runs (
            run_id, job_id, device, title, media_type, status, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.JobID,
		run.Device,
		run.Title,
		run.MediaType,
		"running",
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun completes a run's row with the outcome.
func (j *Journal) FinishRun(ctx context.Context, run Run) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE rip_runs SET
            exit_code = ?, error_count = ?, titles_ripped = ?,
            status = ?, detail = ?, finished_at = ?
         WHERE run_id = ?`,
		run.ExitCode,
		run.ErrorCount,
		run.TitlesRipped,
		run.Status,
		nullableString(run.Detail),
		time.Now().UTC().Format(time.RFC3339Nano),
		run.RunID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", run.RunID)
	}
	return nil
}

// RecentRuns returns the newest runs, most recent first.
func (j *Journal) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, job_id, device, title, media_type,
                COALESCE(exit_code, -1), error_count, titles_ripped,
                status, COALESCE(detail, ''), started_at, COALESCE(finished_at, '')
         FROM rip_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		if err := rows.Scan(
			&run.RunID, &run.JobID, &run.Device, &run.Title, &run.MediaType,
			&run.ExitCode, &run.ErrorCount, &run.TitlesRipped,
			&run.Status, &run.Detail, &started, &finished,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tripwell/tripctl/internal/pipeline"
)

// DBFileName is the history database file inside the data directory.
const DBFileName = "history.db"

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// RunDB stores pipeline reports in SQLite.
type RunDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL lets batch runs write while a history listing reads.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no run history at %s", dbPath)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; batch callbacks queue on the pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return rdb, nil
}

// Path returns the database file path.
func (r *RunDB) Path() string {
	return r.dbPath
}

// Close closes the database connection.
func (r *RunDB) Close() error {
	return r.db.Close()
}

func (r *RunDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		flow TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		status TEXT NOT NULL,
		failed_stage TEXT,
		error_kind TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_flow ON runs(flow);
	CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SaveReport stores report. Saving the same run id twice replaces the row.
func (r *RunDB) SaveReport(ctx context.Context, report *pipeline.Report) error {
	if report == nil {
		return errors.New("report is nil")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	var errKind sql.NullString
	if report.Error != nil {
		errKind = sql.NullString{String: report.Error.Kind.String(), Valid: true}
	}

	query := `
	INSERT INTO runs (run_id, flow, fingerprint, status, failed_stage, error_kind, started_at, finished_at, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		flow = excluded.flow,
		fingerprint = excluded.fingerprint,
		status = excluded.status,
		failed_stage = excluded.failed_stage,
		error_kind = excluded.error_kind,
		started_at = excluded.started_at,
		finished_at = excluded.finished_at,
		report_json = excluded.report_json
	`
	_, err = r.db.ExecContext(ctx, query,
		report.RunID,
		report.Flow,
		report.Fingerprint,
		string(report.Status),
		nullString(report.FailedStage),
		errKind,
		report.StartedAt.UTC().Format(timeLayout),
		report.FinishedAt.UTC().Format(timeLayout),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", report.RunID, err)
	}
	return nil
}

// GetReport loads the full report for runID.
func (r *RunDB) GetReport(ctx context.Context, runID string) (*pipeline.Report, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE run_id = ?`, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report pipeline.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// RunSummary is a history row without the stored report body.
type RunSummary struct {
	RunID       string
	Flow        string
	Fingerprint string
	Status      pipeline.Status
	FailedStage string
	ErrorKind   string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Duration returns the wall time of the run.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// ListOptions filters ListRuns.
type ListOptions struct {
	// Flow restricts the listing to one flow. Empty lists every flow.
	Flow string

	// Status restricts the listing to one outcome. Empty lists both.
	Status pipeline.Status

	// Limit caps the number of rows. Zero means no limit.
	Limit int
}

const summaryColumns = `run_id, flow, fingerprint, status, failed_stage, error_kind, started_at, finished_at`

// ListRuns returns runs newest first.
func (r *RunDB) ListRuns(ctx context.Context, opts ListOptions) ([]RunSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM runs WHERE 1 = 1`
	var args []any
	if opts.Flow != "" {
		query += ` AND flow = ?`
		args = append(args, opts.Flow)
	}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY started_at DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	return r.querySummaries(ctx, query, args...)
}

// FindByFingerprint returns every run with the given fingerprint, newest
// first. Runs share a fingerprint when they ran the same flow with the
// same seed.
func (r *RunDB) FindByFingerprint(ctx context.Context, fingerprint string) ([]RunSummary, error) {
	return r.querySummaries(ctx,
		`SELECT `+summaryColumns+` FROM runs WHERE fingerprint = ? ORDER BY started_at DESC`,
		fingerprint)
}

// FlowStats counts outcomes for one flow.
type FlowStats struct {
	Flow      string
	Runs      int
	Succeeded int
	Failed    int
}

// Stats returns per-flow outcome counts ordered by flow name.
func (r *RunDB) Stats(ctx context.Context) ([]FlowStats, error) {
	query := `
	SELECT flow,
		COUNT(*),
		SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END),
		SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END)
	FROM runs
	GROUP BY flow
	ORDER BY flow
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	defer rows.Close()

	var stats []FlowStats
	for rows.Next() {
		var s FlowStats
		if err := rows.Scan(&s.Flow, &s.Runs, &s.Succeeded, &s.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Prune deletes runs that started before cutoff and returns how many
// were removed.
func (r *RunDB) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

func (r *RunDB) querySummaries(ctx context.Context, query string, args ...any) ([]RunSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s                 RunSummary
			status            string
			failed, kind      sql.NullString
			started, finished string
		)
		if err := rows.Scan(&s.RunID, &s.Flow, &s.Fingerprint, &status, &failed, &kind, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.Status = pipeline.Status(status)
		s.FailedStage = failed.String
		s.ErrorKind = kind.String
		s.StartedAt = parseTimestamp(started)
		s.FinishedAt = parseTimestamp(finished)
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// timeLayout has a fixed-width fraction so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timestampFormats are tried in order when reading a stored time.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

package history

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

	"github.com/nao1215/bmclean/internal/model"
)

// FileName is the database file created inside the history directory.
const FileName = "bmclean.db"

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// Store is the run history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the directory and database file.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens the history database in dir.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, FileName)

	mode := "rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		mode = "rwc"
	} else if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("history database not available at %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?mode="+mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck // already failing
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := s.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		input TEXT NOT NULL,
		output TEXT NOT NULL,
		started_at TEXT NOT NULL,
		unique_urls INTEGER NOT NULL DEFAULT 0,
		duplicate_urls INTEGER NOT NULL DEFAULT 0,
		outdated_urls INTEGER NOT NULL DEFAULT 0,
		removed_nodes INTEGER NOT NULL DEFAULT 0,
		written INTEGER NOT NULL DEFAULT 0,
		checksum TEXT NOT NULL DEFAULT '',
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_input ON runs(input);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is the summary row of one run.
type RunRecord struct {
	ID            int64
	Input         string
	Output        string
	StartedAt     time.Time
	UniqueURLs    int
	DuplicateURLs int
	OutdatedURLs  int
	RemovedNodes  int
	Written       bool
	Checksum      string
}

// SaveRun stores report and returns its ID.
func (s *Store) SaveRun(ctx context.Context, report *model.CleanReport) (int64, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	const query = `
	INSERT INTO runs (input, output, started_at, unique_urls, duplicate_urls, outdated_urls,
		removed_nodes, written, checksum, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, query,
		report.Input,
		report.Output,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.UniqueURLs,
		len(report.Duplicates),
		len(report.Outdated),
		report.RemovedNodes,
		report.Written,
		report.Checksum,
		string(data),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	const query = `
	SELECT id, input, output, started_at, unique_urls, duplicate_urls, outdated_urls,
		removed_nodes, written, checksum
	FROM runs
	ORDER BY id DESC
	LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var startedAt string
		if err := rows.Scan(&r.ID, &r.Input, &r.Output, &startedAt, &r.UniqueURLs,
			&r.DuplicateURLs, &r.OutdatedURLs, &r.RemovedNodes, &r.Written, &r.Checksum); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(startedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns the full report of run id.
func (s *Store) GetRun(ctx context.Context, id int64) (*model.CleanReport, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.CleanReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when s matches no known format.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

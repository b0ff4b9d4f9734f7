package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/iptvscan/internal/model"
)

// ErrNoRun is returned when a snapshot holds no run summary.
var ErrNoRun = errors.New("snapshot contains no run")

// SnapshotDB is a SQLite file holding the results of one probe pass.
type SnapshotDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures SnapshotDB behavior.
type Options struct {
	// EnableWAL enables Write-Ahead Logging. It leaves -wal and -shm files
	// next to the snapshot while it is open.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{}
}

// Open opens or creates the snapshot file at path, creating parent
// directories as needed.
func Open(path string, opts Options) (*SnapshotDB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	return &SnapshotDB{db: db, dbPath: path}, nil
}

// Close closes the database connection.
func (s *SnapshotDB) Close() error {
	return s.db.Close()
}

// Path returns the snapshot file path.
func (s *SnapshotDB) Path() string {
	return s.dbPath
}

const schema = `
DROP TABLE IF EXISTS entries;
DROP TABLE IF EXISTS runs;

-- One row per playlist entry, in playlist order
CREATE TABLE entries (
	position INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	link TEXT NOT NULL,
	status TEXT NOT NULL,
	status_label TEXT NOT NULL,
	tvg_id TEXT NOT NULL DEFAULT '',
	group_title TEXT NOT NULL DEFAULT ''
);

CREATE INDEX idx_entries_status ON entries(status);

-- Summary of the pass that produced the entries
CREATE TABLE runs (
	id INTEGER PRIMARY KEY,
	run_id TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	total INTEGER NOT NULL,
	available INTEGER NOT NULL,
	unavailable INTEGER NOT NULL,
	timeout INTEGER NOT NULL,
	connection_failed INTEGER NOT NULL,
	error INTEGER NOT NULL,
	needs_manual_check INTEGER NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	interrupted INTEGER NOT NULL DEFAULT 0
);
`

// Write replaces the snapshot contents with entries and run in one transaction.
func (s *SnapshotDB) Write(ctx context.Context, entries []*model.Entry, run *model.BatchRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO entries (position, name, link, status, status_label, tvg_id, group_title)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // closed with the transaction

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			i+1,
			e.Name,
			e.Link,
			e.Status.Name(),
			e.Status.String(),
			e.Attr(model.AttrTvgID),
			e.Attr(model.AttrGroupTitle),
		); err != nil {
			return fmt.Errorf("failed to insert entry %d: %w", i+1, err)
		}
	}

	if run != nil {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_at, strategy, total, available, unavailable, timeout,
			connection_failed, error, needs_manual_check, elapsed_ms, interrupted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			time.Now().UTC().Format(time.RFC3339),
			run.Strategy,
			run.Total,
			run.Available(),
			run.Count(model.StatusUnavailable),
			run.Count(model.StatusTimeout),
			run.Count(model.StatusConnectionFailed),
			run.Count(model.StatusError),
			run.NeedsManualCheck(),
			run.Elapsed.Milliseconds(),
			run.Interrupted,
		); err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Entries returns the stored entries in playlist order. When status is
// non-nil only entries with that status are returned.
func (s *SnapshotDB) Entries(ctx context.Context, status *model.Status) ([]*model.Entry, error) {
	query := `SELECT name, link, status, tvg_id, group_title FROM entries`
	args := make([]any, 0, 1)
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, status.Name())
	}
	query += ` ORDER BY position`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only query

	var entries []*model.Entry
	for rows.Next() {
		var name, link, statusName, tvgID, group string
		if err := rows.Scan(&name, &link, &statusName, &tvgID, &group); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}

		e := model.NewEntry(name, link)
		if e.Status, err = model.ParseStatus(statusName); err != nil {
			return nil, err
		}
		setAttr(e, model.AttrTvgID, tvgID)
		setAttr(e, model.AttrGroupTitle, group)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Run returns the stored run summary.
func (s *SnapshotDB) Run(ctx context.Context) (*model.BatchRun, time.Time, error) {
	var (
		runID, createdAt, strategy             string
		total, available, unavailable, timeout int
		connectionFailed, errCount, manual     int
		elapsedMS                              int64
		interrupted                            bool
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT run_id, created_at, strategy, total, available, unavailable, timeout,
		connection_failed, error, needs_manual_check, elapsed_ms, interrupted
	FROM runs ORDER BY id DESC LIMIT 1
	`).Scan(&runID, &createdAt, &strategy, &total, &available, &unavailable, &timeout,
		&connectionFailed, &errCount, &manual, &elapsedMS, &interrupted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNoRun
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query run: %w", err)
	}

	run := model.Summarize(nil, time.Duration(elapsedMS)*time.Millisecond)
	run.ID = runID
	run.Total = total
	run.Strategy = strategy
	run.Interrupted = interrupted
	run.Counts[model.StatusAvailable] = available
	run.Counts[model.StatusUnavailable] = unavailable
	run.Counts[model.StatusTimeout] = timeout
	run.Counts[model.StatusConnectionFailed] = connectionFailed
	run.Counts[model.StatusError] = errCount
	run.Counts[model.StatusNeedsManualCheck] = manual
	run.Counts[model.StatusUntested] = run.Residual()

	return run, parseTimestamp(createdAt), nil
}

// Export writes a snapshot file at path in one call.
func Export(ctx context.Context, path string, entries []*model.Entry, run *model.BatchRun) error {
	db, err := Open(path, DefaultOptions())
	if err != nil {
		return err
	}
	if err := db.Write(ctx, entries, run); err != nil {
		_ = db.Close()
		return err
	}
	return db.Close()
}

func setAttr(e *model.Entry, key, value string) {
	if value == "" {
		return
	}
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
}

// timestampFormats are the layouts SQLite may return for DATETIME columns.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

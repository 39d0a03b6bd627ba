package buildlog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the build log at dbPath. Use ":memory:"
// for an in-memory log.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		cause TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		pages INTEGER NOT NULL,
		issues INTEGER NOT NULL,
		fingerprint TEXT,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	CREATE INDEX IF NOT EXISTS idx_builds_outcome ON builds(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a finished build to the log.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (id, cause, started_at, duration_ms, outcome, pages, issues, fingerprint, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Trigger, rec.StartedAt.UnixMilli(), rec.Duration.Milliseconds(),
		rec.Outcome, rec.Pages, rec.Issues, rec.Fingerprint, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}

	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, cause, started_at, duration_ms, outcome, pages, issues, fingerprint, error FROM builds ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ByID retrieves one record, nil when absent.
func (s *SQLiteStore) ByID(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, cause, started_at, duration_ms, outcome, pages, issues, fingerprint, error FROM builds WHERE id = ?",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query build: %w", err)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var recs []Record
	for rows.Next() {
		var rec Record
		var startedMilli, durationMilli int64

		err := rows.Scan(&rec.ID, &rec.Trigger, &startedMilli, &durationMilli,
			&rec.Outcome, &rec.Pages, &rec.Issues, &rec.Fingerprint, &rec.Error)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}

		rec.StartedAt = time.UnixMilli(startedMilli)
		rec.Duration = time.Duration(durationMilli) * time.Millisecond
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return recs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

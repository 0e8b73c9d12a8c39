// Package store handles SQLite persistence of analysis history.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNoCandidate is returned when accepting a rank that was never recorded.
var ErrNoCandidate = errors.New("candidate not recorded")

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY,
		started_at TEXT NOT NULL,
		digest TEXT NOT NULL,
		source TEXT NOT NULL,
		lang TEXT NOT NULL,
		pattern_count TEXT NOT NULL,
		min_key INTEGER NOT NULL,
		max_key INTEGER NOT NULL,
		text_len INTEGER NOT NULL,
		patterns INTEGER NOT NULL,
		cache_hit INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS candidates (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		rank INTEGER NOT NULL,
		key_length INTEGER NOT NULL,
		failure_ratio REAL NOT NULL,
		key TEXT NOT NULL,
		fit REAL NOT NULL,
		accepted INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, rank)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest)`,
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn in a transaction, committing when it returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

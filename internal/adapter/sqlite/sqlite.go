// Package sqlite implements the record store on an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"habits/internal/domain"
)

// DB wraps a *sql.DB and implements domain.RecordStore.
type DB struct {
	sql *sql.DB
}

var _ domain.RecordStore = (*DB)(nil)

// Open opens (creating if needed) the database file and applies the
// connection pragmas. WAL journaling makes concurrent external writers safe
// at the engine level; this layer adds no locking of its own.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	s, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The sqlite driver serializes writes per connection; a single
	// connection avoids SQLITE_BUSY between in-process writers.
	s.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.Exec(p); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	return &DB{sql: s}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Init creates the schema. Safe to call repeatedly.
func (d *DB) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_metrics (
			day TEXT PRIMARY KEY,
			sugar_intake_g INTEGER NOT NULL DEFAULT 0,
			water_ml INTEGER NOT NULL DEFAULT 0,
			fap_count INTEGER NOT NULL DEFAULT 0,
			productive_hours REAL NOT NULL DEFAULT 0,
			weight_kg REAL,
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

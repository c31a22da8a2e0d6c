// Package sqlite implements the storage interface using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	// Pure-Go SQLite driver
	_ "modernc.org/sqlite"
)

// Store implements storage.Storage backed by a single SQLite database
// file. All transactions begin IMMEDIATE (via _txlock) so invariant
// checks and the writes they guard serialize under concurrent use.
type Store struct {
	db     *sql.DB
	dbPath string
	closed atomic.Bool

	// now is overridable in tests for deterministic timestamps.
	now func() time.Time
}

// Open creates (or opens) the database at path, applies pragmas, and
// ensures the schema exists. Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string) (*Store, error) {
	var connStr string
	if path == ":memory:" {
		connStr = ":memory:"
	} else {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		connStr = "file:" + path + "?_txlock=immediate"
		if strings.HasPrefix(path, "file:") {
			connStr = path
			if !strings.Contains(path, "_txlock") {
				sep := "?"
				if strings.Contains(path, "?") {
					sep = "&"
				}
				connStr = path + sep + "_txlock=immediate"
			}
		}
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The driver is not safe for concurrent writes over multiple
	// connections; a single connection avoids SQLITE_BUSY entirely.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 30000",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{
		db:     db,
		dbPath: path,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Path returns the filesystem path of the database.
func (s *Store) Path() string {
	return s.dbPath
}

// Close releases the database handle. Safe to call more than once.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// inTx runs fn inside a transaction, committing on nil and rolling back
// on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if s.closed.Load() {
		return fmt.Errorf("store is closed")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

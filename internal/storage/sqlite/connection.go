// Package sqlite is the C1 storage backend: a single embedded SQLite
// database holding workspaces, sessions, events, blobs, and branches, plus
// the full-text index over event content.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/sessiontree/sessiontree/internal/types"
)

// Config configures the backend (§6). Path == ":memory:" opens a private
// in-memory database.
type Config struct {
	Path          string
	EnableWAL     bool
	BusyTimeoutMs int
}

// DefaultConfig returns the §6 defaults: WAL on, a 5s busy timeout.
func DefaultConfig(path string) Config {
	return Config{Path: path, EnableWAL: true, BusyTimeoutMs: 5000}
}

// connString builds the ncruces/go-sqlite3 DSN using the file:<path>?_pragma=...
// idiom, carrying WAL mode, foreign keys, and busy-timeout pragmas.
func connString(cfg Config) string {
	journal := "DELETE"
	if cfg.EnableWAL {
		journal = "WAL"
	}
	busyMs := cfg.BusyTimeoutMs
	if busyMs <= 0 {
		busyMs = 5000
	}
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	// _txlock=immediate makes every db.BeginTx issue BEGIN IMMEDIATE instead
	// of SQLite's default deferred BEGIN, so the writer lock is acquired up
	// front the way §4.1's "synchronous"/"cooperative" transaction flavors
	// require, without hand-rolling a raw-connection BEGIN statement.
	return fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(ON)&_pragma=journal_mode(%s)&_pragma=synchronous(NORMAL)&_pragma=cache_size(-65536)&_time_format=sqlite&_txlock=immediate",
		path, busyMs, journal,
	)
}

// Open opens the database, applies the schema, and runs migrations. The
// returned *sql.DB is owned by exactly one backend instance per process
// (§5 "Shared resources").
func Open(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single embedded database serializes writers regardless of how many
	// connections database/sql pools; capping at 1 avoids SQLITE_BUSY churn
	// between pooled connections racing the same writer lock.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: run migrations: %w", err)
	}
	return db, nil
}

// classifyErr maps a raw database/sql error to a closed ErrKind (§7).
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", types.ErrConflict, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", types.ErrConflict, err)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return fmt.Errorf("%w: %v", types.ErrBusy, err)
	default:
		return fmt.Errorf("%w: %v", types.ErrStorage, err)
	}
}

package sqlite

import (
	"database/sql"
	"fmt"

	"golang.org/x/mod/semver"
)

// Migration is a single named, idempotent schema change, run in order
// during initialization. Recorded versions compare with
// golang.org/x/mod/semver instead of a bare integer so a future minor bump
// stays backward-compatible.
type Migration struct {
	Name    string
	Version string // semver, e.g. "v1.0.0"
	Func    func(*sql.DB) error
}

// migrationsList is the ordered list of all migrations. schema.go already
// creates every table IF NOT EXISTS, so this list only accumulates changes
// that must run against a database created by an older build.
var migrationsList = []Migration{
	{"initial_schema", "v1.0.0", func(db *sql.DB) error { return nil }},
}

// TargetVersion is the schema version this build expects after migrating.
const TargetVersion = "v1.0.0"

// RunMigrations executes all registered migrations in order inside a single
// EXCLUSIVE transaction, recording the applied version in schema_version.
// Foreign keys are disabled before the transaction starts (SQLite requires
// PRAGMA foreign_keys outside any transaction), then BEGIN EXCLUSIVE
// serializes migrations across processes that might open the database
// concurrently.
func RunMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("sqlite: disable foreign keys for migrations: %w", err)
	}
	defer func() { _, _ = db.Exec("PRAGMA foreign_keys = ON") }()

	if _, err := db.Exec("BEGIN EXCLUSIVE"); err != nil {
		return fmt.Errorf("sqlite: acquire exclusive lock for migrations: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = db.Exec("ROLLBACK")
		}
	}()

	applied, err := appliedVersion(db)
	if err != nil {
		return fmt.Errorf("sqlite: read schema_version: %w", err)
	}

	for _, m := range migrationsList {
		if applied != "" && semver.Compare(m.Version, applied) <= 0 {
			continue
		}
		if err := m.Func(db); err != nil {
			return fmt.Errorf("sqlite: migration %s failed: %w", m.Name, err)
		}
	}

	if _, err := db.Exec(
		"INSERT OR REPLACE INTO schema_version (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)",
		TargetVersion,
	); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	if err := verifyInvariants(db); err != nil {
		return fmt.Errorf("sqlite: post-migration invariant check failed: %w", err)
	}

	if _, err := db.Exec("COMMIT"); err != nil {
		return fmt.Errorf("sqlite: commit migrations: %w", err)
	}
	committed = true
	return nil
}

func appliedVersion(db *sql.DB) (string, error) {
	var v string
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

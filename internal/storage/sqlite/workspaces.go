package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sessiontree/sessiontree/internal/types"
)

// CreateWorkspace inserts a new workspace row. Fails with Conflict on a
// duplicate path.
func CreateWorkspace(ctx context.Context, db *sql.DB, w *types.Workspace) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO workspaces (id, path, name, created_at, last_active_at)
		VALUES (?, ?, ?, ?, ?)
	`, string(w.ID), w.Path, w.Name, w.CreatedAt, w.LastActiveAt)
	return classifyErr(err)
}

// GetWorkspace fetches a workspace by id.
func GetWorkspace(ctx context.Context, db *sql.DB, id types.WorkspaceId) (*types.Workspace, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, path, name, created_at, last_active_at FROM workspaces WHERE id = ?
	`, string(id))
	w, err := scanWorkspace(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", types.ErrWorkspaceNotFound, id)
	}
	return w, err
}

// GetWorkspaceByPath fetches a workspace by its unique absolute path.
func GetWorkspaceByPath(ctx context.Context, db *sql.DB, path string) (*types.Workspace, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, path, name, created_at, last_active_at FROM workspaces WHERE path = ?
	`, path)
	w, err := scanWorkspace(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", types.ErrWorkspaceNotFound, path)
	}
	return w, err
}

// GetOrCreateWorkspace auto-vivifies a workspace keyed by absolute path on
// first reference (§3 Workspace lifecycle). Runs inside a synchronous
// transaction (withTx) so the check-then-insert is atomic under concurrent
// callers.
func GetOrCreateWorkspace(ctx context.Context, db *sql.DB, path string) (*types.Workspace, error) {
	var w *types.Workspace
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT id, path, name, created_at, last_active_at FROM workspaces WHERE path = ?
		`, path)
		existing, err := scanWorkspace(row)
		if err == nil {
			w = existing
			return nil
		}
		if err != sql.ErrNoRows {
			return err
		}
		now := time.Now().UTC()
		nw := &types.Workspace{
			ID:           types.NewWorkspaceId(),
			Path:         path,
			CreatedAt:    now,
			LastActiveAt: now,
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO workspaces (id, path, name, created_at, last_active_at)
			VALUES (?, ?, '', ?, ?)
		`, string(nw.ID), nw.Path, nw.CreatedAt, nw.LastActiveAt); err != nil {
			return err
		}
		w = nw
		return nil
	})
	if err != nil {
		return nil, classifyErr(err)
	}
	return w, nil
}

// ListWorkspaces returns every workspace, most recently active first.
func ListWorkspaces(ctx context.Context, db *sql.DB) ([]*types.Workspace, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, path, name, created_at, last_active_at FROM workspaces
		ORDER BY last_active_at DESC
	`)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()

	var out []*types.Workspace
	for rows.Next() {
		w, err := scanWorkspaceRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(row rowScanner) (*types.Workspace, error) {
	var w types.Workspace
	var id, path, name string
	var createdAt, lastActiveAt time.Time
	if err := row.Scan(&id, &path, &name, &createdAt, &lastActiveAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, classifyErr(err)
	}
	w = types.Workspace{ID: types.WorkspaceId(id), Path: path, Name: name, CreatedAt: createdAt, LastActiveAt: lastActiveAt}
	return &w, nil
}

func scanWorkspaceRows(rows *sql.Rows) (*types.Workspace, error) {
	return scanWorkspace(rows)
}

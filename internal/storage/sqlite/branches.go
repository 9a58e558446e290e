package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sessiontree/sessiontree/internal/types"
)

const branchSelectCols = `
	SELECT id, name, session_id, root_event_id, head_event_id, is_default FROM branches`

// CreateBranch inserts a named head pointer within a session (§3 Branch,
// supplemented feature: full CRUD with no projection interaction).
func CreateBranch(ctx context.Context, q querier, b *types.Branch) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO branches (id, name, session_id, root_event_id, head_event_id, is_default)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(b.ID), b.Name, string(b.SessionID), string(b.RootEventID), string(b.HeadEventID), boolToInt(b.IsDefault))
	return classifyErr(err)
}

// GetBranch fetches a branch by id.
func GetBranch(ctx context.Context, q querier, id types.BranchId) (*types.Branch, error) {
	row := q.QueryRowContext(ctx, branchSelectCols+` WHERE id = ?`, string(id))
	b, err := scanBranch(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", types.ErrBranchNotFound, id)
	}
	return b, err
}

// ListBranches lists the branches of a session.
func ListBranches(ctx context.Context, q querier, sessionID types.SessionId) ([]*types.Branch, error) {
	rows, err := q.QueryContext(ctx, branchSelectCols+` WHERE session_id = ? ORDER BY name ASC`, string(sessionID))
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()
	var out []*types.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, classifyErr(err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SetDefaultBranch marks b as the session's default branch, clearing the
// flag on every other branch of that session.
func SetDefaultBranch(ctx context.Context, q querier, sessionID types.SessionId, id types.BranchId) error {
	if _, err := q.ExecContext(ctx, `UPDATE branches SET is_default = 0 WHERE session_id = ?`, string(sessionID)); err != nil {
		return classifyErr(err)
	}
	_, err := q.ExecContext(ctx, `UPDATE branches SET is_default = 1 WHERE id = ? AND session_id = ?`, string(id), string(sessionID))
	return classifyErr(err)
}

// UpdateBranchHead advances a branch's head pointer.
func UpdateBranchHead(ctx context.Context, q querier, id types.BranchId, head types.EventId) error {
	_, err := q.ExecContext(ctx, `UPDATE branches SET head_event_id = ? WHERE id = ?`, string(head), string(id))
	return classifyErr(err)
}

func scanBranch(row rowScanner) (*types.Branch, error) {
	var b types.Branch
	var id, name, sessionID, rootEventID, headEventID string
	var isDefault int
	if err := row.Scan(&id, &name, &sessionID, &rootEventID, &headEventID, &isDefault); err != nil {
		return nil, err
	}
	b.ID = types.BranchId(id)
	b.Name = name
	b.SessionID = types.SessionId(sessionID)
	b.RootEventID = types.EventId(rootEventID)
	b.HeadEventID = types.EventId(headEventID)
	b.IsDefault = isDefault != 0
	return &b, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

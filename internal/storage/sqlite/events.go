package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sessiontree/sessiontree/internal/types"
)

// querier is satisfied by both *sql.DB and *sql.Tx, letting the primitives
// below run inside or outside a caller-held transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertEvent inserts one event row. Fails with Conflict if the id already
// exists (I5: events are never mutated after commit).
func InsertEvent(ctx context.Context, q querier, e *types.Event) error {
	var parentID, blobRef, checksum any
	if e.ParentID != nil {
		parentID = string(*e.ParentID)
	}
	if e.BlobRef != nil {
		blobRef = string(*e.BlobRef)
	}
	if e.Checksum != nil {
		checksum = *e.Checksum
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO events (id, parent_id, session_id, workspace_id, timestamp, type, sequence, payload, blob_ref, checksum, depth)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, string(e.ID), parentID, string(e.SessionID), string(e.WorkspaceID), e.Timestamp, string(e.Type), e.Sequence, e.Payload, blobRef, checksum, e.Depth)
	return classifyErr(err)
}

// GetEvent fetches a single event by id.
func GetEvent(ctx context.Context, q querier, id types.EventId) (*types.Event, error) {
	row := q.QueryRowContext(ctx, eventSelectCols+` WHERE id = ?`, string(id))
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", types.ErrEventNotFound, id)
	}
	return e, err
}

// GetEvents fetches multiple events by id in one round trip; order of the
// result is unspecified, callers reorder as needed.
func GetEvents(ctx context.Context, q querier, ids []types.EventId) ([]*types.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = string(id)
	}
	rows, err := q.QueryContext(ctx, eventSelectCols+fmt.Sprintf(` WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// GetChildren returns the direct children of an event within its session.
func GetChildren(ctx context.Context, q querier, sessionID types.SessionId, parentID types.EventId) ([]*types.Event, error) {
	rows, err := q.QueryContext(ctx, eventSelectCols+`
		WHERE session_id = ? AND parent_id = ? ORDER BY sequence ASC
	`, string(sessionID), string(parentID))
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// GetAncestors walks from target to its root via a recursive CTE, returning
// rows ordered oldest-first (root -> target), per §4.1. The walk follows
// parent_id regardless of session, so it crosses into a source session at a
// fork root (I6) transparently.
func GetAncestors(ctx context.Context, q querier, target types.EventId) ([]*types.Event, error) {
	rows, err := q.QueryContext(ctx, `
		WITH RECURSIVE ancestors(id, parent_id, session_id, workspace_id, timestamp, type, sequence, payload, blob_ref, checksum, depth, rank) AS (
			SELECT id, parent_id, session_id, workspace_id, timestamp, type, sequence, payload, blob_ref, checksum, depth, 0
			FROM events WHERE id = ?
			UNION ALL
			SELECT e.id, e.parent_id, e.session_id, e.workspace_id, e.timestamp, e.type, e.sequence, e.payload, e.blob_ref, e.checksum, e.depth, a.rank + 1
			FROM events e
			JOIN ancestors a ON e.id = a.parent_id
		)
		SELECT id, parent_id, session_id, workspace_id, timestamp, type, sequence, payload, blob_ref, checksum, depth
		FROM ancestors ORDER BY rank DESC
	`, string(target))
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// NextSequence returns max(sequence)+1 for a session (0 if none). Callers
// must invoke this inside the same transaction that inserts the event, per
// §4.3 step 3a, to avoid duplicate sequences under concurrency.
func NextSequence(ctx context.Context, q querier, sessionID types.SessionId) (int64, error) {
	var max sql.NullInt64
	err := q.QueryRowContext(ctx, `SELECT MAX(sequence) FROM events WHERE session_id = ?`, string(sessionID)).Scan(&max)
	if err != nil {
		return 0, classifyErr(err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64 + 1, nil
}

const eventSelectCols = `
	SELECT id, parent_id, session_id, workspace_id, timestamp, type, sequence, payload, blob_ref, checksum, depth
	FROM events`

func scanEvent(row rowScanner) (*types.Event, error) {
	var id, sessionID, workspaceID, typ string
	var parentID, blobRef, checksum sql.NullString
	var ts time.Time
	var seq, depth int64
	var payload []byte
	if err := row.Scan(&id, &parentID, &sessionID, &workspaceID, &ts, &typ, &seq, &payload, &blobRef, &checksum, &depth); err != nil {
		return nil, err
	}
	e := &types.Event{
		ID:          types.EventId(id),
		SessionID:   types.SessionId(sessionID),
		WorkspaceID: types.WorkspaceId(workspaceID),
		Timestamp:   ts,
		Type:        types.EventType(typ),
		Sequence:    seq,
		Payload:     payload,
		Depth:       depth,
	}
	if parentID.Valid {
		pid := types.EventId(parentID.String)
		e.ParentID = &pid
	}
	if blobRef.Valid {
		bid := types.BlobId(blobRef.String)
		e.BlobRef = &bid
	}
	if checksum.Valid {
		c := checksum.String
		e.Checksum = &c
	}
	return e, nil
}

func collectEvents(rows *sql.Rows) ([]*types.Event, error) {
	var out []*types.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, classifyErr(err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

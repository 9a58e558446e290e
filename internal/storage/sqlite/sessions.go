package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sessiontree/sessiontree/internal/types"
)

const sessionSelectCols = `
	SELECT id, workspace_id, root_event_id, head_event_id, title, ended_at, latest_model, provider,
	       working_dir, parent_session_id, fork_from_event_id, created_at, last_activity_at,
	       event_count, message_count, turn_count, input_tokens, output_tokens,
	       cache_read_tokens, cache_create_tokens, cost_usd, last_turn_input_tokens, tags
	FROM sessions`

// CreateSession inserts a new session row. root_event_id/head_event_id are
// left null until the caller inserts the root event (append/fork do this in
// the same transaction).
func CreateSession(ctx context.Context, q querier, s *types.Session) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO sessions (
			id, workspace_id, root_event_id, head_event_id, title, ended_at, latest_model, provider,
			working_dir, parent_session_id, fork_from_event_id, created_at, last_activity_at,
			event_count, message_count, turn_count, input_tokens, output_tokens,
			cache_read_tokens, cache_create_tokens, cost_usd, last_turn_input_tokens, tags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(s.ID), string(s.WorkspaceID), nullableEventID(s.RootEventID), nullableEventIDPtr(s.HeadEventID),
		s.Title, nullableTime(s.EndedAt), s.LatestModel, s.Provider, s.WorkingDir,
		nullableSessionIDPtr(s.ParentSessionID), nullableEventIDPtr(s.ForkFromEventID),
		s.CreatedAt, s.LastActivityAt, s.EventCount, s.MessageCount, s.TurnCount,
		s.InputTokens, s.OutputTokens, s.CacheReadTokens, s.CacheCreateTokens, s.CostUSD,
		s.LastTurnInputTokens, strings.Join(s.Tags, ","),
	)
	return classifyErr(err)
}

// GetSession fetches a session by id.
func GetSession(ctx context.Context, q querier, id types.SessionId) (*types.Session, error) {
	row := q.QueryRowContext(ctx, sessionSelectCols+` WHERE id = ?`, string(id))
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, id)
	}
	return s, err
}

// ListSessions lists sessions in a workspace, most recently active first.
func ListSessions(ctx context.Context, q querier, workspaceID types.WorkspaceId) ([]*types.Session, error) {
	rows, err := q.QueryContext(ctx, sessionSelectCols+`
		WHERE workspace_id = ? ORDER BY last_activity_at DESC
	`, string(workspaceID))
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()
	var out []*types.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, classifyErr(err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetSessionRoot records the root event id for a newly created session
// (append/fork set this the moment the root event is inserted).
func SetSessionRoot(ctx context.Context, q querier, id types.SessionId, rootEventID types.EventId) error {
	_, err := q.ExecContext(ctx, `UPDATE sessions SET root_event_id = ? WHERE id = ?`, string(rootEventID), string(id))
	return classifyErr(err)
}

// AdvanceSessionHead updates the session head and last-activity timestamp,
// the per-append pointer update of §4.3 step 3d.
func AdvanceSessionHead(ctx context.Context, q querier, id types.SessionId, head types.EventId, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE sessions SET head_event_id = ?, last_activity_at = ? WHERE id = ?
	`, string(head), now, string(id))
	return classifyErr(err)
}

// ApplyCounterDelta rolls the append engine's per-event counter updates into
// the session row.
func ApplyCounterDelta(ctx context.Context, q querier, id types.SessionId, d types.CounterDelta) error {
	turnClause := ""
	args := []any{d.EventCountDelta, d.MessageCountDelta, d.InputTokensDelta, d.OutputTokensDelta,
		d.CacheReadTokensDelta, d.CacheCreateTokensDelta, d.CostUSDDelta}
	if d.TurnCount != nil {
		turnClause = ", turn_count = MAX(turn_count, ?)"
		args = append(args, *d.TurnCount)
	}
	lastTurnClause := ""
	if d.LastTurnInputTokens != nil {
		lastTurnClause = ", last_turn_input_tokens = ?"
		args = append(args, *d.LastTurnInputTokens)
	}
	args = append(args, string(id))

	_, err := q.ExecContext(ctx, fmt.Sprintf(`
		UPDATE sessions SET
			event_count = event_count + ?,
			message_count = message_count + ?,
			input_tokens = input_tokens + ?,
			output_tokens = output_tokens + ?,
			cache_read_tokens = cache_read_tokens + ?,
			cache_create_tokens = cache_create_tokens + ?,
			cost_usd = cost_usd + ?
			%s%s
		WHERE id = ?
	`, turnClause, lastTurnClause), args...)
	return classifyErr(err)
}

// SetSessionLatestModel updates the denormalized model cache (§3 Session;
// source of truth remains config.model_switch events).
func SetSessionLatestModel(ctx context.Context, q querier, id types.SessionId, model string) error {
	_, err := q.ExecContext(ctx, `UPDATE sessions SET latest_model = ? WHERE id = ?`, model, string(id))
	return classifyErr(err)
}

// EndSession sets ended_at, marking the session inactive.
func EndSession(ctx context.Context, q querier, id types.SessionId, endedAt time.Time) error {
	_, err := q.ExecContext(ctx, `UPDATE sessions SET ended_at = ? WHERE id = ?`, endedAt, string(id))
	return classifyErr(err)
}

func scanSession(row rowScanner) (*types.Session, error) {
	var s types.Session
	var id, workspaceID, title, latestModel, provider, workingDir, tags string
	var rootEventID, headEventID, parentSessionID, forkFromEventID sql.NullString
	var endedAt sql.NullTime
	var createdAt, lastActivityAt time.Time

	if err := row.Scan(
		&id, &workspaceID, &rootEventID, &headEventID, &title, &endedAt, &latestModel, &provider,
		&workingDir, &parentSessionID, &forkFromEventID, &createdAt, &lastActivityAt,
		&s.EventCount, &s.MessageCount, &s.TurnCount, &s.InputTokens, &s.OutputTokens,
		&s.CacheReadTokens, &s.CacheCreateTokens, &s.CostUSD, &s.LastTurnInputTokens, &tags,
	); err != nil {
		return nil, err
	}

	s.ID = types.SessionId(id)
	s.WorkspaceID = types.WorkspaceId(workspaceID)
	s.Title = title
	s.LatestModel = latestModel
	s.Provider = provider
	s.WorkingDir = workingDir
	s.CreatedAt = createdAt
	s.LastActivityAt = lastActivityAt
	if rootEventID.Valid {
		s.RootEventID = types.EventId(rootEventID.String)
	}
	if headEventID.Valid {
		h := types.EventId(headEventID.String)
		s.HeadEventID = &h
	}
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	if parentSessionID.Valid {
		p := types.SessionId(parentSessionID.String)
		s.ParentSessionID = &p
	}
	if forkFromEventID.Valid {
		f := types.EventId(forkFromEventID.String)
		s.ForkFromEventID = &f
	}
	if tags != "" {
		s.Tags = strings.Split(tags, ",")
	}
	return &s, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableEventID(id types.EventId) any {
	if id == "" {
		return nil
	}
	return string(id)
}

func nullableEventIDPtr(id *types.EventId) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func nullableSessionIDPtr(id *types.SessionId) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sessiontree/sessiontree/internal/types"
)

// Search issues an FTS match over events_fts with optional workspace/
// session/type/time scope (§4.6, C6), ranked by BM25. events_fts is
// maintained manually (event_id is an UNINDEXED column, not a rowid join)
// since events.id is a branded TEXT key.
func Search(ctx context.Context, q querier, opts types.SearchOptions) ([]types.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	var b strings.Builder
	b.WriteString(`
		SELECT e.id, e.session_id, e.type, e.timestamp,
		       snippet(events_fts, 2, '<mark>', '</mark>', '...', 32),
		       bm25(events_fts)
		FROM events_fts
		JOIN events e ON e.id = events_fts.event_id
		WHERE events_fts MATCH ?
	`)
	args := []any{ftsMatchQuery(opts.Query)}

	if opts.WorkspaceID != "" {
		b.WriteString(" AND e.workspace_id = ?")
		args = append(args, string(opts.WorkspaceID))
	}
	if opts.SessionID != "" {
		b.WriteString(" AND e.session_id = ?")
		args = append(args, string(opts.SessionID))
	}
	if len(opts.Types) > 0 {
		placeholders := make([]string, len(opts.Types))
		for i, t := range opts.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		fmt.Fprintf(&b, " AND e.type IN (%s)", strings.Join(placeholders, ","))
	}
	if !opts.Since.IsZero() {
		b.WriteString(" AND e.timestamp >= ?")
		args = append(args, opts.Since)
	}
	if !opts.Until.IsZero() {
		b.WriteString(" AND e.timestamp <= ?")
		args = append(args, opts.Until)
	}

	b.WriteString(" ORDER BY bm25(events_fts) ASC LIMIT ? OFFSET ?")
	args = append(args, limit, opts.Offset)

	rows, err := q.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer rows.Close()

	var out []types.SearchResult
	for rows.Next() {
		var r types.SearchResult
		var eventID, sessionID, typ string
		var ts time.Time
		var score float64
		if err := rows.Scan(&eventID, &sessionID, &typ, &ts, &r.Snippet, &score); err != nil {
			return nil, classifyErr(err)
		}
		r.EventID = types.EventId(eventID)
		r.SessionID = types.SessionId(sessionID)
		r.Type = types.EventType(typ)
		r.Timestamp = ts
		// bm25() returns a negative score where lower is better; the public
		// result carries a positive relevance score per §4.6.
		if score < 0 {
			score = -score
		}
		r.Score = score
		out = append(out, r)
	}
	return out, rows.Err()
}

// IndexEvent inserts one row into events_fts for a newly appended event
// (§4.3 step 3f). text is the concatenation of the payload's text blocks;
// toolName is set only when the payload carries one.
func IndexEvent(ctx context.Context, q querier, id types.EventId, eventType types.EventType, text, toolName string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO events_fts (event_id, type, content, tool_name) VALUES (?, ?, ?, ?)
	`, string(id), string(eventType), text, toolName)
	return classifyErr(err)
}

// ftsMatchQuery appends a prefix wildcard to a bare single-word query so
// long as the caller hasn't already supplied FTS5 query syntax.
func ftsMatchQuery(query string) string {
	if !strings.ContainsAny(query, ` "*:()`) {
		return query + "*"
	}
	return query
}

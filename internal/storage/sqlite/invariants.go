package sqlite

import (
	"database/sql"
	"fmt"
)

// InvariantReport is the structured result of VerifyInvariants (§3 I1-I7).
type InvariantReport struct {
	OrphanedEvents      int64 // I1: parent missing or in a different session (fork roots excepted)
	DuplicateSequences  int64 // I2
	NonDenseSequences   int64 // I2
	UnreachableHeads    int64 // I3: head id names no existing event (the head-to-root walk is not performed)
	BadRootEvents       int64 // I4
	CounterDrift        int64 // I7: sessions whose denormalized counters disagree with the log
}

// Clean reports whether no violation was found.
func (r InvariantReport) Clean() bool {
	return r.OrphanedEvents == 0 && r.DuplicateSequences == 0 && r.NonDenseSequences == 0 &&
		r.UnreachableHeads == 0 && r.BadRootEvents == 0 && r.CounterDrift == 0
}

// verifyInvariants runs the cheap invariant checks used as a migration
// safety gate; it is a subset of VerifyInvariants, aborting the migration
// with an error on the first violation rather than returning a report.
func verifyInvariants(db *sql.DB) error {
	var dup int64
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM (
			SELECT session_id, sequence, COUNT(*) c
			FROM events GROUP BY session_id, sequence HAVING c > 1
		)`).Scan(&dup); err != nil {
		return err
	}
	if dup > 0 {
		return fmt.Errorf("sqlite: %d duplicate (session_id, sequence) pairs", dup)
	}

	var badRoot int64
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM events
		WHERE parent_id IS NULL AND (sequence != 0 OR type NOT IN ('session.start', 'session.fork'))
	`).Scan(&badRoot); err != nil {
		return err
	}
	if badRoot > 0 {
		return fmt.Errorf("sqlite: %d malformed root events", badRoot)
	}
	return nil
}

// VerifyInvariants checks I1-I4 and I7 over the whole database and returns a
// structured report (does not mutate). I5 and I6 are not checked: fork roots
// are exempt from the I1 query rather than checked against their source
// session, and I7 compares only event_count and message_count. Exposed as sessiontree.VerifyInvariants
// and the administrative CLI's doctor subcommand.
func VerifyInvariants(db *sql.DB) (InvariantReport, error) {
	var r InvariantReport

	if err := db.QueryRow(`
		SELECT COUNT(*) FROM events e
		WHERE e.parent_id IS NOT NULL
		  AND e.type != 'session.fork'
		  AND NOT EXISTS (
		      SELECT 1 FROM events p
		      WHERE p.id = e.parent_id AND p.session_id = e.session_id AND p.sequence < e.sequence
		  )
	`).Scan(&r.OrphanedEvents); err != nil {
		return r, fmt.Errorf("sqlite: check I1: %w", err)
	}

	if err := db.QueryRow(`
		SELECT COUNT(*) FROM (
			SELECT session_id, sequence, COUNT(*) c
			FROM events GROUP BY session_id, sequence HAVING c > 1
		)`).Scan(&r.DuplicateSequences); err != nil {
		return r, fmt.Errorf("sqlite: check I2 (duplicates): %w", err)
	}

	if err := db.QueryRow(`
		SELECT COUNT(*) FROM (
			SELECT session_id, COUNT(*) n, MAX(sequence) mx
			FROM events GROUP BY session_id HAVING n - 1 != mx
		)`).Scan(&r.NonDenseSequences); err != nil {
		return r, fmt.Errorf("sqlite: check I2 (density): %w", err)
	}

	if err := db.QueryRow(`
		SELECT COUNT(*) FROM sessions s
		WHERE s.head_event_id IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM events e WHERE e.id = s.head_event_id)
	`).Scan(&r.UnreachableHeads); err != nil {
		return r, fmt.Errorf("sqlite: check I3: %w", err)
	}

	if err := db.QueryRow(`
		SELECT COUNT(*) FROM events
		WHERE parent_id IS NULL AND (sequence != 0 OR type NOT IN ('session.start', 'session.fork'))
	`).Scan(&r.BadRootEvents); err != nil {
		return r, fmt.Errorf("sqlite: check I4: %w", err)
	}

	if err := db.QueryRow(`
		SELECT COUNT(*) FROM sessions s
		WHERE s.event_count != (SELECT COUNT(*) FROM events e WHERE e.session_id = s.id)
		   OR s.message_count != (
		       SELECT COUNT(*) FROM events e
		       WHERE e.session_id = s.id AND e.type IN ('message.user', 'message.assistant')
		   )
	`).Scan(&r.CounterDrift); err != nil {
		return r, fmt.Errorf("sqlite: check I7: %w", err)
	}

	return r, nil
}

// RecomputeSessionCounters rebuilds a session's event_count, message_count,
// input_tokens and output_tokens from its event log (§3 I7, §5
// "Denormalization discipline") by full recompute rather than incremental
// dirty-tracking. The cache-token, cost, turn and last-turn counters are left
// as they are.
func RecomputeSessionCounters(db *sql.DB, sessionID string) error {
	_, err := db.Exec(`
		UPDATE sessions SET
			event_count = (SELECT COUNT(*) FROM events WHERE session_id = ?),
			message_count = (
				SELECT COUNT(*) FROM events
				WHERE session_id = ? AND type IN ('message.user', 'message.assistant')
			),
			input_tokens = (
				SELECT COALESCE(SUM(json_extract(payload, '$.usage.inputTokens')), 0)
				FROM events WHERE session_id = ? AND json_extract(payload, '$.usage') IS NOT NULL
			),
			output_tokens = (
				SELECT COALESCE(SUM(json_extract(payload, '$.usage.outputTokens')), 0)
				FROM events WHERE session_id = ? AND json_extract(payload, '$.usage') IS NOT NULL
			)
		WHERE id = ?
	`, sessionID, sessionID, sessionID, sessionID, sessionID)
	if err != nil {
		return classifyErr(err)
	}
	return nil
}

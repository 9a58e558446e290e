// Package appendengine is the C3 append engine: transactional sequence
// assignment, parent resolution, counter rollup, and FTS indexing for one
// new event (§4.3).
package appendengine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sessiontree/sessiontree/internal/obslog"
	"github.com/sessiontree/sessiontree/internal/pricing"
	"github.com/sessiontree/sessiontree/internal/storage"
	"github.com/sessiontree/sessiontree/internal/types"
)

// Engine appends events to a session's head under the storage backend's
// cooperative transaction.
type Engine struct {
	store  storage.Storage
	pricer pricing.Pricer
	log    obslog.Logger
}

// New builds an append engine. pricer may be nil, in which case events that
// carry usage but no pre-computed cost are appended with cost 0.
func New(store storage.Storage, pricer pricing.Pricer, log obslog.Logger) *Engine {
	return &Engine{store: store, pricer: pricer, log: log}
}

// Append adds one event to a session's head (§4.3). parentID, if nil,
// defaults to the session's current head; NoParent if both are absent.
func (e *Engine) Append(ctx context.Context, sessionID types.SessionId, eventType types.EventType, payload any, parentID *types.EventId) (*types.Event, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	parent := parentID
	if parent == nil {
		parent = sess.HeadEventID
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: session %s", types.ErrNoParent, sessionID)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	var event *types.Event
	err = e.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		seq, err := tx.NextSequence(ctx, sessionID)
		if err != nil {
			return err
		}

		depth := int64(0)
		if parentRec, err := tx.GetEvent(ctx, *parent); err == nil {
			depth = parentRec.Depth + 1
		}

		ev := &types.Event{
			ID:          types.NewEventId(),
			ParentID:    parent,
			SessionID:   sessionID,
			WorkspaceID: sess.WorkspaceID,
			Timestamp:   time.Now().UTC(),
			Type:        eventType,
			Sequence:    seq,
			Payload:     payloadBytes,
			Depth:       depth,
		}
		if err := tx.InsertEvent(ctx, ev); err != nil {
			return err
		}
		if err := tx.AdvanceSessionHead(ctx, sessionID, ev.ID); err != nil {
			return err
		}

		delta, err := e.counterDelta(eventType, payload, sess.LatestModel)
		if err != nil {
			return err
		}
		if err := tx.ApplyCounterDelta(ctx, sessionID, delta); err != nil {
			return err
		}

		text, toolName := searchableText(eventType, payload)
		if err := tx.IndexEvent(ctx, ev.ID, eventType, text, toolName); err != nil {
			return err
		}

		event = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Debug("appended event", "session_id", sessionID, "event_id", event.ID, "type", eventType, "sequence", event.Sequence)
	return event, nil
}

// counterDelta implements §4.3 step 3e.
func (e *Engine) counterDelta(eventType types.EventType, payload any, model string) (types.CounterDelta, error) {
	var d types.CounterDelta
	d.EventCountDelta = 1

	msg, ok := payload.(types.MessagePayload)
	if !ok {
		return d, nil
	}
	if eventType == types.EventMessageUser || eventType == types.EventMessageAssistant {
		d.MessageCountDelta = 1
	}
	if msg.Turn > 0 {
		turn := int64(msg.Turn)
		d.TurnCount = &turn
	}
	if msg.Usage == nil {
		return d, nil
	}
	u := *msg.Usage
	d.InputTokensDelta = u.InputTokens
	d.OutputTokensDelta = u.OutputTokens
	d.CacheReadTokensDelta = u.CacheReadTokens
	d.CacheCreateTokensDelta = u.CacheCreateTokens
	lastTurn := u.InputTokens
	d.LastTurnInputTokens = &lastTurn

	if u.CostUSD != nil {
		d.CostUSDDelta = *u.CostUSD
	} else if e.pricer != nil {
		cost, err := e.pricer.Cost(model, u)
		if err != nil {
			e.log.Warn("pricing lookup failed", "model", model, "err", err)
		} else {
			d.CostUSDDelta = cost
		}
	}
	return d, nil
}

// searchableText implements §4.3 step 3f.
func searchableText(eventType types.EventType, payload any) (text string, toolName string) {
	switch p := payload.(type) {
	case types.MessagePayload:
		var b strings.Builder
		for _, blk := range p.Blocks() {
			if blk.Type == types.BlockText {
				b.WriteString(blk.Text)
				b.WriteString(" ")
			}
		}
		return strings.TrimSpace(b.String()), ""
	case types.ToolResultPayload:
		var b strings.Builder
		for _, blk := range p.Content {
			if blk.Type == types.BlockText {
				b.WriteString(blk.Text)
				b.WriteString(" ")
			}
		}
		return strings.TrimSpace(b.String()), p.ToolUseID
	case types.CompactSummaryPayload:
		return p.Summary, ""
	default:
		return "", ""
	}
}

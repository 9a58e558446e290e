// Package fork is the C5 fork engine: branches a new session off an
// existing event without copying history (§4.5).
package fork

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sessiontree/sessiontree/internal/obslog"
	"github.com/sessiontree/sessiontree/internal/storage"
	"github.com/sessiontree/sessiontree/internal/types"
)

// Engine creates forked sessions under the storage backend's cooperative
// transaction.
type Engine struct {
	store storage.Storage
	log   obslog.Logger
}

func New(store storage.Storage, log obslog.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// Options configures a fork (§4.5 `opts`).
type Options struct {
	Model string
	Name  string
}

// Fork creates a new session rooted at fromEventID (§4.5). The returned
// session's ancestor walk traverses backward through the fork root into the
// source session transparently (I6).
func (e *Engine) Fork(ctx context.Context, fromEventID types.EventId, opts Options) (*types.Session, *types.Event, error) {
	source, err := e.store.GetEvent(ctx, fromEventID)
	if err != nil {
		return nil, nil, err
	}
	sourceSession, err := e.store.GetSession(ctx, source.SessionID)
	if err != nil {
		return nil, nil, err
	}

	model := opts.Model
	if model == "" {
		model = sourceSession.LatestModel
	}

	payload := types.SessionForkPayload{
		SessionStartPayload: types.SessionStartPayload{Model: model},
		SourceSessionID:     sourceSession.ID,
		SourceEventID:       fromEventID,
		Name:                opts.Name,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	newSessionID := types.NewSessionId()
	newSession := &types.Session{
		ID:              newSessionID,
		WorkspaceID:     sourceSession.WorkspaceID,
		Title:           opts.Name,
		LatestModel:     model,
		Provider:        sourceSession.Provider,
		WorkingDir:      sourceSession.WorkingDir,
		ParentSessionID: &sourceSession.ID,
		ForkFromEventID: &fromEventID,
		CreatedAt:       now,
		LastActivityAt:  now,
	}

	var root *types.Event
	err = e.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := tx.CreateSession(ctx, newSession); err != nil {
			return err
		}
		root = &types.Event{
			ID:          types.NewEventId(),
			ParentID:    &fromEventID, // cross-session edge, permitted only for fork roots (I6)
			SessionID:   newSessionID,
			WorkspaceID: sourceSession.WorkspaceID,
			Timestamp:   now,
			Type:        types.EventSessionFork,
			Sequence:    0,
			Payload:     payloadBytes,
			Depth:       source.Depth + 1,
		}
		if err := tx.InsertEvent(ctx, root); err != nil {
			return err
		}
		if err := tx.SetSessionRoot(ctx, newSessionID, root.ID); err != nil {
			return err
		}
		if err := tx.AdvanceSessionHead(ctx, newSessionID, root.ID); err != nil {
			return err
		}
		return tx.ApplyCounterDelta(ctx, newSessionID, types.CounterDelta{EventCountDelta: 1})
	})
	if err != nil {
		return nil, nil, err
	}

	newSession.RootEventID = root.ID
	newSession.HeadEventID = &root.ID
	newSession.EventCount = 1

	e.log.Debug("forked session", "source_session_id", sourceSession.ID, "from_event_id", fromEventID, "new_session_id", newSessionID)
	return newSession, root, nil
}

package appendengine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sessiontree/sessiontree/internal/storage"
	"github.com/sessiontree/sessiontree/internal/types"
)

// StartOptions configures a new session's root event.
type StartOptions struct {
	Model        string
	Provider     string
	WorkingDir   string
	Title        string
	SystemPrompt string
}

// StartSession creates a session row and its session.start root event in a
// single cooperative transaction, mirroring the fork engine's root-creation
// pattern (§4.5 step 2) for the non-forked case implied by §3's "Session
// lifecycle: session.start, ...".
func (e *Engine) StartSession(ctx context.Context, workspaceID types.WorkspaceId, opts StartOptions) (*types.Session, *types.Event, error) {
	payload := types.SessionStartPayload{SystemPrompt: opts.SystemPrompt, Model: opts.Model}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	sess := &types.Session{
		ID:             types.NewSessionId(),
		WorkspaceID:    workspaceID,
		Title:          opts.Title,
		LatestModel:    opts.Model,
		Provider:       opts.Provider,
		WorkingDir:     opts.WorkingDir,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	var root *types.Event
	err = e.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := tx.CreateSession(ctx, sess); err != nil {
			return err
		}
		root = &types.Event{
			ID:          types.NewEventId(),
			ParentID:    nil,
			SessionID:   sess.ID,
			WorkspaceID: workspaceID,
			Timestamp:   now,
			Type:        types.EventSessionStart,
			Sequence:    0,
			Payload:     payloadBytes,
			Depth:       0,
		}
		if err := tx.InsertEvent(ctx, root); err != nil {
			return err
		}
		if err := tx.SetSessionRoot(ctx, sess.ID, root.ID); err != nil {
			return err
		}
		if err := tx.AdvanceSessionHead(ctx, sess.ID, root.ID); err != nil {
			return err
		}
		return tx.ApplyCounterDelta(ctx, sess.ID, types.CounterDelta{EventCountDelta: 1})
	})
	if err != nil {
		return nil, nil, err
	}

	sess.RootEventID = root.ID
	sess.HeadEventID = &root.ID
	sess.EventCount = 1

	e.log.Debug("started session", "session_id", sess.ID, "workspace_id", workspaceID, "model", opts.Model)
	return sess, root, nil
}

package appendengine

import (
	"context"
	"fmt"

	"github.com/sessiontree/sessiontree/internal/types"
)

// Delete appends a message.deleted event targeting targetID (§4.3's data
// plane `delete` operation). Only message.user, message.assistant, and
// tool.result events are deletable; anything else is rejected with
// ErrInvalidDelete before a message.deleted event is ever appended.
//
// Deleting a message.assistant does not delete the tool.result events that
// follow it: they stay in the log, and the projection drops them as orphaned
// unless an assistant message was emitted just before the next
// message.assistant.
func (e *Engine) Delete(ctx context.Context, sessionID types.SessionId, targetID types.EventId, reason string) (*types.Event, error) {
	target, err := e.store.GetEvent(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !types.DeletableTypes[target.Type] {
		return nil, fmt.Errorf("%w: %s is %s", types.ErrInvalidDelete, targetID, target.Type)
	}

	payload := types.MessageDeletedPayload{TargetEventID: targetID, Reason: reason}
	return e.Append(ctx, sessionID, types.EventMessageDeleted, payload, nil)
}

// Package projection is the C4 projection engine: reconstructs a message
// list and a richer session state from a walk of an event's ancestor chain
// (§4.4). Two passes over the same ancestor slice: the first gathers
// control state (deletions, reasoning level, system prompt), the second
// builds the message list.
package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sessiontree/sessiontree/internal/storage"
	"github.com/sessiontree/sessiontree/internal/types"
)

const (
	compactPreamble  = "[Context from earlier in this conversation]\n\n"
	compactAckText   = "I understand the previous context. Let me continue helping you."
	promptUpdateStub = "[Updated prompt - hash: %s]"
)

// Engine projects message lists and session state from a storage backend.
type Engine struct {
	store storage.Storage
}

func New(store storage.Storage) *Engine {
	return &Engine{store: store}
}

// toolResult is the buffered form of a tool.result event awaiting a flush
// point, per §4.4 step 4.
type toolResult struct {
	ToolUseID string
	Content   []types.Block
	IsError   bool
}

// controlState is pass 1's output.
type controlState struct {
	deleted        map[types.EventId]bool
	reasoningLevel string
	systemPrompt   string
}

// Messages reconstructs the message list suitable for an LLM API call, from
// the ancestor chain of target (typically a session head).
func (e *Engine) Messages(ctx context.Context, target types.EventId) ([]types.Message, error) {
	ancestors, err := e.store.GetAncestors(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(ancestors) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrEventNotFound, target)
	}
	cs := gatherControlState(ancestors)
	return buildMessages(ancestors, cs), nil
}

// MessagesForSessionHead projects the message list from a session's current
// head, failing SessionHasNoHead if the session has not yet had a root
// event inserted.
func (e *Engine) MessagesForSessionHead(ctx context.Context, sessionID types.SessionId) ([]types.Message, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.HeadEventID == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionHasNoHead, sessionID)
	}
	return e.Messages(ctx, *sess.HeadEventID)
}

// State projects the richer session-state view: messages plus accumulated
// usage and effective config (§4.4 "State projection").
func (e *Engine) State(ctx context.Context, target types.EventId) (*types.SessionState, error) {
	ancestors, err := e.store.GetAncestors(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(ancestors) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrEventNotFound, target)
	}
	cs := gatherControlState(ancestors)
	messages := buildMessages(ancestors, cs)

	// The root of the ancestor chain may belong to a source session reached
	// only by crossing a fork boundary (I6); config comes from the session of
	// the walk target instead.
	sess, err := e.store.GetSession(ctx, ancestors[len(ancestors)-1].SessionID)
	if err != nil {
		return nil, err
	}

	state := &types.SessionState{
		Messages:       messages,
		Model:          sess.LatestModel,
		ReasoningLevel: cs.reasoningLevel,
		SystemPrompt:   cs.systemPrompt,
		WorkingDir:     sess.WorkingDir,
	}

	for _, ev := range ancestors {
		if cs.deleted[ev.ID] {
			continue
		}
		if ev.Type != types.EventMessageUser && ev.Type != types.EventMessageAssistant {
			continue
		}
		var p types.MessagePayload
		if err := unmarshalPayload(ev, &p); err != nil {
			continue
		}
		if p.Usage != nil {
			state.InputTokens += p.Usage.InputTokens
			state.OutputTokens += p.Usage.OutputTokens
			state.CacheReadTokens += p.Usage.CacheReadTokens
			state.CacheCreateTokens += p.Usage.CacheCreateTokens
		}
		if ev.Type == types.EventMessageAssistant && int64(p.Turn) > state.TurnCount {
			state.TurnCount = int64(p.Turn)
		}
	}
	return state, nil
}

// gatherControlState is pass 1 (§4.4 "Pass 1 — gather control state").
func gatherControlState(ancestors []*types.Event) controlState {
	cs := controlState{deleted: make(map[types.EventId]bool)}
	for _, ev := range ancestors {
		switch ev.Type {
		case types.EventMessageDeleted:
			var p types.MessageDeletedPayload
			if unmarshalPayload(ev, &p) == nil {
				cs.deleted[p.TargetEventID] = true
			}
		case types.EventConfigReasoningLevel:
			var p types.ConfigReasoningLevelPayload
			if unmarshalPayload(ev, &p) == nil {
				cs.reasoningLevel = p.Level
			}
		case types.EventConfigPromptUpdate:
			var p types.ConfigPromptUpdatePayload
			if unmarshalPayload(ev, &p) == nil {
				cs.systemPrompt = fmt.Sprintf(promptUpdateStub, p.NewHash)
			}
		case types.EventSessionStart, types.EventSessionFork:
			if cs.systemPrompt == "" {
				var p types.SessionStartPayload
				if unmarshalPayload(ev, &p) == nil {
					cs.systemPrompt = p.SystemPrompt
				}
			}
		}
	}
	return cs
}

// buildMessages is pass 2 (§4.4 "Pass 2 — build messages").
func buildMessages(ancestors []*types.Event, cs controlState) []types.Message {
	var m []types.Message
	var pending []toolResult

	flushPending := func() {
		if len(pending) == 0 {
			return
		}
		var blocks []types.Block
		for _, tr := range pending {
			blocks = append(blocks, types.Block{
				Type:            types.BlockToolResult,
				ToolResultForID: tr.ToolUseID,
				IsError:         tr.IsError,
				Content:         tr.Content,
			})
		}
		m = append(m, types.Message{Role: "user", Content: blocks})
		pending = nil
	}

	for _, ev := range ancestors {
		if cs.deleted[ev.ID] {
			continue
		}
		switch ev.Type {
		case types.EventCompactSummary:
			var p types.CompactSummaryPayload
			_ = unmarshalPayload(ev, &p)
			m = nil
			pending = nil
			m = append(m,
				types.Message{Role: "user", Content: []types.Block{{Type: types.BlockText, Text: compactPreamble + p.Summary}}},
				types.Message{Role: "assistant", Content: []types.Block{{Type: types.BlockText, Text: compactAckText}}},
			)

		case types.EventContextCleared:
			m = nil
			pending = nil

		case types.EventToolResult:
			var p types.ToolResultPayload
			if unmarshalPayload(ev, &p) == nil {
				pending = append(pending, toolResult{ToolUseID: p.ToolUseID, Content: p.Content, IsError: p.IsError})
			}

		case types.EventMessageUser:
			pending = nil
			var p types.MessagePayload
			if unmarshalPayload(ev, &p) != nil {
				continue
			}
			blocks := normalizeBlocks(p)
			if n := len(m); n > 0 && m[n-1].Role == "user" {
				m[n-1].Content = append(m[n-1].Content, blocks...)
			} else {
				m = append(m, types.Message{Role: "user", Content: blocks})
			}

		case types.EventMessageAssistant:
			var p types.MessagePayload
			if unmarshalPayload(ev, &p) != nil {
				continue
			}
			if n := len(m); n > 0 && m[n-1].Role == "assistant" {
				flushPending()
			} else {
				pending = nil
			}
			blocks := normalizeBlocks(p)
			if n := len(m); n > 0 && m[n-1].Role == "assistant" {
				m[n-1].Content = append(m[n-1].Content, blocks...)
			} else {
				m = append(m, types.Message{Role: "assistant", Content: blocks})
			}
		}
	}
	// Remaining PendingToolResults are intentionally not flushed: the
	// session is awaiting user input and the results were for display only.
	return m
}

func normalizeBlocks(p types.MessagePayload) []types.Block {
	blocks := p.Blocks()
	out := make([]types.Block, len(blocks))
	copy(out, blocks)
	return out
}

func unmarshalPayload(ev *types.Event, v any) error {
	return json.Unmarshal(ev.Payload, v)
}

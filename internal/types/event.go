package types

import "time"

// EventType is the closed discriminator for persisted event variants (§4.2).
// Unknown/future values must round-trip unchanged through storage; the
// projection engine ignores types it does not recognize.
type EventType string

const (
	EventSessionStart  EventType = "session.start"
	EventSessionEnd    EventType = "session.end"
	EventSessionFork   EventType = "session.fork"
	EventSessionBranch EventType = "session.branch"

	EventMessageUser      EventType = "message.user"
	EventMessageAssistant EventType = "message.assistant"
	EventMessageSystem    EventType = "message.system"
	EventMessageDeleted   EventType = "message.deleted"

	EventToolCall   EventType = "tool.call"
	EventToolResult EventType = "tool.result"

	EventStreamTurnStart     EventType = "stream.turn_start"
	EventStreamTurnEnd       EventType = "stream.turn_end"
	EventStreamTextDelta     EventType = "stream.text_delta"
	EventStreamThinkingDelta EventType = "stream.thinking_delta"

	EventConfigModelSwitch    EventType = "config.model_switch"
	EventConfigPromptUpdate   EventType = "config.prompt_update"
	EventConfigReasoningLevel EventType = "config.reasoning_level"

	EventCompactBoundary EventType = "compact.boundary"
	EventCompactSummary  EventType = "compact.summary"
	EventContextCleared  EventType = "context.cleared"

	EventMetadataUpdate EventType = "metadata.update"
	EventMetadataTag    EventType = "metadata.tag"

	EventFileRead  EventType = "file.read"
	EventFileWrite EventType = "file.write"
	EventFileEdit  EventType = "file.edit"

	EventWorktreeAcquired EventType = "worktree.acquired"
	EventWorktreeCommit   EventType = "worktree.commit"
	EventWorktreeReleased EventType = "worktree.released"
	EventWorktreeMerged   EventType = "worktree.merged"

	EventRulesLoaded  EventType = "rules.loaded"
	EventSkillAdded   EventType = "skill.added"
	EventSkillRemoved EventType = "skill.removed"

	EventErrorAgent    EventType = "error.agent"
	EventErrorTool     EventType = "error.tool"
	EventErrorProvider EventType = "error.provider"
)

// BlockType discriminates the content blocks carried by message payloads.
// Field names mirror anthropic-sdk-go's content-block param shapes so the
// wire format lines up with the provider API the product ultimately talks
// to; this package never imports anthropic.Client.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockImage      BlockType = "image"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
	BlockThinking   BlockType = "thinking"
)

// Block is one element of a message's content sequence. Only the fields
// relevant to Type are populated.
type Block struct {
	Type BlockType `json:"type"`

	// BlockText
	Text string `json:"text,omitempty"`

	// BlockImage
	MediaType string `json:"mediaType,omitempty"`
	Data      string `json:"data,omitempty"` // base64

	// BlockToolUse
	ToolUseID string         `json:"id,omitempty"`
	ToolName  string         `json:"name,omitempty"`
	ToolInput map[string]any `json:"input,omitempty"`

	// BlockToolResult
	ToolResultForID string  `json:"tool_use_id,omitempty"`
	IsError         bool    `json:"is_error,omitempty"`
	Content         []Block `json:"content,omitempty"`

	// BlockThinking
	Thinking string `json:"thinking,omitempty"`
}

// TokenUsage is the token-accounting shape carried by message payloads that
// represent a completed turn.
type TokenUsage struct {
	InputTokens      int64 `json:"inputTokens"`
	OutputTokens     int64 `json:"outputTokens"`
	CacheReadTokens  int64 `json:"cacheReadTokens,omitempty"`
	CacheCreateTokens int64 `json:"cacheCreateTokens,omitempty"`
	// CostUSD is the pre-computed cost, if the caller already knows it. The
	// append engine prefers this over calling the pricing collaborator.
	CostUSD *float64 `json:"costUsd,omitempty"`
}

// MessagePayload is the payload shape for message.user, message.assistant,
// and message.system events. Content may be a single string (normalized to
// one text block by the projection engine) or a block sequence; assistant
// messages always carry a block sequence.
type MessagePayload struct {
	Text    string     `json:"text,omitempty"`
	Content []Block    `json:"content,omitempty"`
	Turn    int        `json:"turn,omitempty"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}

// Blocks normalizes the payload's content into a block sequence regardless
// of whether it was authored as a plain string or an explicit block list.
func (p MessagePayload) Blocks() []Block {
	if len(p.Content) > 0 {
		return p.Content
	}
	if p.Text != "" {
		return []Block{{Type: BlockText, Text: p.Text}}
	}
	return nil
}

// MessageDeletedPayload is the payload for message.deleted events.
type MessageDeletedPayload struct {
	TargetEventID EventId `json:"targetEventId"`
	Reason        string  `json:"reason,omitempty"`
}

// ToolResultPayload is the payload for tool.result events.
type ToolResultPayload struct {
	ToolUseID string  `json:"toolUseId"`
	Content   []Block `json:"content,omitempty"`
	IsError   bool    `json:"isError,omitempty"`
}

// SessionStartPayload is the payload for session.start and session.fork
// root events.
type SessionStartPayload struct {
	SystemPrompt string `json:"systemPrompt,omitempty"`
	Model        string `json:"model,omitempty"`
}

// SessionForkPayload additionally carries fork lineage on a session.fork
// root event.
type SessionForkPayload struct {
	SessionStartPayload
	SourceSessionID SessionId `json:"sourceSessionId"`
	SourceEventID   EventId   `json:"sourceEventId"`
	Name            string    `json:"name,omitempty"`
}

// ConfigPromptUpdatePayload is the payload for config.prompt_update events.
// Full prompt recovery is an open item (§9.1 of the requirements this
// package implements); the projection engine substitutes a hash-bearing
// placeholder instead of fetching BlobRef.
type ConfigPromptUpdatePayload struct {
	NewHash string  `json:"newHash"`
	BlobRef *BlobId `json:"blobRef,omitempty"`
}

// ConfigReasoningLevelPayload is the payload for config.reasoning_level events.
type ConfigReasoningLevelPayload struct {
	Level string `json:"level"`
}

// ConfigModelSwitchPayload is the payload for config.model_switch events.
type ConfigModelSwitchPayload struct {
	Model string `json:"model"`
}

// CompactSummaryPayload is the payload for compact.summary events.
type CompactSummaryPayload struct {
	Summary string `json:"summary"`
}

// Event is the immutable unit of truth (§3). Inserted once, never updated,
// never deleted.
type Event struct {
	ID          EventId
	ParentID    *EventId // null only for root events
	SessionID   SessionId
	WorkspaceID WorkspaceId
	Timestamp   time.Time // millisecond precision
	Type        EventType
	Sequence    int64 // monotonic per-session
	Payload     []byte // type-specific, JSON-encoded
	BlobRef     *BlobId
	Checksum    *string // over (parentId + payload), optional
	Depth       int64   // derived: distance from root
}

// IsRoot reports whether e has no parent (session.start or session.fork
// with sequence 0).
func (e Event) IsRoot() bool { return e.ParentID == nil }

package types

import "time"

// Workspace groups sessions by project/directory scope (§3). Created on
// demand when the first session references its path; never deleted by the
// core.
type Workspace struct {
	ID           WorkspaceId
	Path         string // absolute, unique
	Name         string
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// Session is a linear pointer head into the event tree (§3).
type Session struct {
	ID          SessionId
	WorkspaceID WorkspaceId
	RootEventID EventId
	HeadEventID *EventId // null only before the root event is inserted
	Title       string
	EndedAt     *time.Time // null = active
	LatestModel string     // denormalized cache; source of truth is config.model_switch
	Provider    string
	WorkingDir  string

	// Fork lineage, set only on forked sessions.
	ParentSessionID *SessionId
	ForkFromEventID *EventId

	CreatedAt      time.Time
	LastActivityAt time.Time

	// Denormalized counters (§3, §5 "Denormalization discipline"). Source of
	// truth is the event log; these are a write-through cache.
	// RecomputeSessionCounters rebuilds the event, message, and input/output
	// token counters from the log.
	EventCount   int64
	MessageCount int64
	TurnCount    int64

	InputTokens  int64
	OutputTokens int64
	CacheReadTokens   int64
	CacheCreateTokens int64
	CostUSD           float64

	// LastTurnInputTokens is a SNAPSHOT of the most recent turn's input
	// token count, not a running sum — it represents current context-window
	// occupancy. Summing this field across events/sessions is meaningless.
	LastTurnInputTokens int64

	Tags []string
}

// IsActive reports whether the session has not been explicitly ended.
func (s Session) IsActive() bool { return s.EndedAt == nil }

// Blob is content-addressed large-content storage (§3). Inserted on first
// write; ref-count incremented on reuse. Garbage collection is out of scope.
type Blob struct {
	ID               BlobId
	ContentHash      string // unique
	Bytes            []byte
	MimeType         string
	OriginalSize     int64
	CompressedSize   int64
	CompressionScheme string
	RefCount         int64
}

// Branch is a named head pointer within a session (§3, secondary/optional).
// Persisted but has no interaction with projection semantics.
type Branch struct {
	ID            BranchId
	Name          string
	SessionID     SessionId
	RootEventID   EventId
	HeadEventID   EventId
	IsDefault     bool
}

// Message is one reconstructed entry of a projected message list (§4.4).
type Message struct {
	Role    string // "user" | "assistant"
	Content []Block
}

// CounterDelta accumulates one append's worth of session counter updates
// (§4.3 step 3e).
type CounterDelta struct {
	EventCountDelta        int64
	MessageCountDelta      int64
	TurnCount              *int64 // set when the payload carries a turn; applied as MAX(turn_count, value)
	InputTokensDelta       int64
	OutputTokensDelta      int64
	CacheReadTokensDelta   int64
	CacheCreateTokensDelta int64
	CostUSDDelta           float64
	// LastTurnInputTokens is a SNAPSHOT assignment (not accumulated) when
	// non-nil — it represents current context-window occupancy, not a sum.
	LastTurnInputTokens *int64
}

// SessionState is the richer projection described in §4.4: accumulated
// usage plus the effective config, alongside the reconstructed message list.
type SessionState struct {
	Messages []Message

	Model          string
	ReasoningLevel string
	SystemPrompt   string
	WorkingDir     string

	InputTokens       int64
	OutputTokens      int64
	CacheReadTokens   int64
	CacheCreateTokens int64
	TurnCount         int64
}

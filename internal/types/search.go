package types

import "time"

// SearchResult is one hit from the full-text search over events_fts (§4.6).
type SearchResult struct {
	EventID   EventId
	SessionID SessionId
	Type      EventType
	Timestamp time.Time
	Snippet   string  // content snippet with match markers
	Score     float64 // positive relevance score (abs value of bm25)
}

// SearchOptions scopes a search query (§4.6). Zero values mean "unscoped".
type SearchOptions struct {
	Query       string
	WorkspaceID WorkspaceId
	SessionID   SessionId
	Types       []EventType
	Since       time.Time // zero means unbounded
	Until       time.Time // zero means unbounded
	Limit       int
	Offset      int
}

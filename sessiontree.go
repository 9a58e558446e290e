// Package sessiontree is the public, embeddable facade over the event
// store: open a database once and get back the append, fork, projection,
// and search collaborators wired to it.
//
// Most callers should use this package rather than reaching into internal/*
// directly. Direct SQL against the underlying database is also supported
// via Tree.Storage().UnderlyingDB() for operators who need it.
package sessiontree

import (
	"context"
	"fmt"

	"github.com/sessiontree/sessiontree/internal/appendengine"
	"github.com/sessiontree/sessiontree/internal/fork"
	"github.com/sessiontree/sessiontree/internal/lock"
	"github.com/sessiontree/sessiontree/internal/obslog"
	"github.com/sessiontree/sessiontree/internal/pricing"
	"github.com/sessiontree/sessiontree/internal/projection"
	"github.com/sessiontree/sessiontree/internal/queries"
	"github.com/sessiontree/sessiontree/internal/storage"
	"github.com/sessiontree/sessiontree/internal/storage/sqlite"
	"github.com/sessiontree/sessiontree/internal/types"
)

// Storage is the C1 backend contract; most callers never need to name it
// directly since Tree already wires a concrete implementation.
type Storage = storage.Storage

// Transaction is the subset of Storage available inside RunInTransaction.
type Transaction = storage.Transaction

// Core domain types, re-exported so callers don't need to import internal/types.
type (
	Event          = types.Event
	EventType      = types.EventType
	Block          = types.Block
	BlockType      = types.BlockType
	TokenUsage     = types.TokenUsage
	MessagePayload = types.MessagePayload
	Session        = types.Session
	Workspace     = types.Workspace
	Blob          = types.Blob
	Branch        = types.Branch
	Message       = types.Message
	SessionState  = types.SessionState
	SearchOptions = types.SearchOptions
	SearchResult  = types.SearchResult
	CounterDelta  = types.CounterDelta

	EventId     = types.EventId
	SessionId   = types.SessionId
	WorkspaceId = types.WorkspaceId
	BranchId    = types.BranchId
	BlobId      = types.BlobId
)

// Event type constants, re-exported from internal/types for callers that
// build payloads or filter search/invariant results by type.
const (
	EventSessionStart  = types.EventSessionStart
	EventSessionEnd    = types.EventSessionEnd
	EventSessionFork   = types.EventSessionFork
	EventSessionBranch = types.EventSessionBranch

	EventMessageUser      = types.EventMessageUser
	EventMessageAssistant = types.EventMessageAssistant
	EventMessageSystem    = types.EventMessageSystem
	EventMessageDeleted   = types.EventMessageDeleted

	EventToolCall   = types.EventToolCall
	EventToolResult = types.EventToolResult

	EventCompactBoundary = types.EventCompactBoundary
	EventCompactSummary  = types.EventCompactSummary
	EventContextCleared  = types.EventContextCleared
)

// Error sentinels, re-exported for errors.Is checks against Tree methods.
var (
	ErrSessionNotFound   = types.ErrSessionNotFound
	ErrEventNotFound     = types.ErrEventNotFound
	ErrWorkspaceNotFound = types.ErrWorkspaceNotFound
	ErrNoParent          = types.ErrNoParent
	ErrInvalidDelete     = types.ErrInvalidDelete
	ErrConflict          = types.ErrConflict
	ErrBusy              = types.ErrBusy
)

// NewEventId, NewSessionId, etc. generate fresh branded ids, re-exported
// for callers constructing test fixtures or synthetic payloads.
var (
	NewEventId     = types.NewEventId
	NewSessionId   = types.NewSessionId
	NewWorkspaceId = types.NewWorkspaceId
	NewBranchId    = types.NewBranchId
	NewBlobId      = types.NewBlobId
)

// Options configures Open.
type Options struct {
	DBPath        string
	EnableWAL     bool // the zero value (false) opens the database without WAL
	BusyTimeoutMs int  // default 5000

	// Pricer overrides the embedded default TOML rate table. Leave nil to
	// use pricing.NewDefault().
	Pricer pricing.Pricer

	// Log is threaded through the append and fork engines. The zero value
	// discards everything.
	Log obslog.Logger
}

// Tree is the embeddable facade over one database: storage, an advisory
// single-writer lock, and the engines built on top of the storage contract.
type Tree struct {
	store  storage.Storage
	lock   *lock.Lock
	log    obslog.Logger
	Append *appendengine.Engine
	Fork   *fork.Engine
	Project *projection.Engine
}

// Open acquires the single-writer advisory lock on opts.DBPath, opens and
// migrates the database, and wires the append/fork/projection engines.
// Returns ErrBusy if another process already holds the lock.
func Open(opts Options) (*Tree, error) {
	l, acquired, err := lock.Acquire(opts.DBPath)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s is open by another process", types.ErrBusy, opts.DBPath)
	}

	enableWAL := opts.EnableWAL
	busyTimeoutMs := opts.BusyTimeoutMs
	if busyTimeoutMs <= 0 {
		busyTimeoutMs = 5000
	}

	store, err := sqlite.New(storage.Config{
		Path:          opts.DBPath,
		EnableWAL:     enableWAL,
		BusyTimeoutMs: busyTimeoutMs,
	})
	if err != nil {
		_ = l.Release()
		return nil, err
	}

	pricer := opts.Pricer
	if pricer == nil {
		p, err := pricing.NewDefault()
		if err != nil {
			_ = store.Close()
			_ = l.Release()
			return nil, err
		}
		pricer = p
	}

	log := opts.Log
	if log == (obslog.Logger{}) {
		log = obslog.Discard()
	}

	return &Tree{
		store:   store,
		lock:    l,
		log:     log,
		Append:  appendengine.New(store, pricer, log),
		Fork:    fork.New(store, log),
		Project: projection.New(store),
	}, nil
}

// Close releases the database connection and the single-writer lock.
func (t *Tree) Close() error {
	err := t.store.Close()
	if lerr := t.lock.Release(); lerr != nil && err == nil {
		err = lerr
	}
	return err
}

// Storage exposes the underlying C1 backend for callers that need a
// primitive not wrapped by Tree (workspace/branch CRUD, blobs, sessions).
func (t *Tree) Storage() storage.Storage { return t.store }

// Search issues a full-text query scoped by workspace/session/type/time
// (§4.6).
func (t *Tree) Search(ctx context.Context, opts types.SearchOptions) ([]types.SearchResult, error) {
	return queries.Search(ctx, t.store.UnderlyingDB(), opts)
}

// VerifyInvariants runs the I1-I4 and I7 consistency checks (§3) over the
// whole database.
func (t *Tree) VerifyInvariants(ctx context.Context) (storage.InvariantReport, error) {
	return t.store.VerifyInvariants(ctx)
}

// RecomputeSessionCounters rebuilds one session's denormalized counters
// from its event log, repairing drift reported by VerifyInvariants.
func (t *Tree) RecomputeSessionCounters(ctx context.Context, sessionID types.SessionId) error {
	return t.store.RecomputeSessionCounters(ctx, sessionID)
}

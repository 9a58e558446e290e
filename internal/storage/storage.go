// Package storage defines the C1 storage backend contract: the primitive
// CRUD and transaction operations every higher engine (append, projection,
// fork, search) is built on.
package storage

import (
	"context"
	"database/sql"

	"github.com/sessiontree/sessiontree/internal/types"
)

// Transaction is the subset of Storage operations available inside a
// cooperative transaction (§4.1), for engines that must perform more than
// one database-facing step while holding the writer lock.
//
// # Transaction semantics
//
//   - All operations share the same database connection and are not
//     visible to other connections until commit.
//   - If the callback function returns an error, the transaction rolls back.
//   - If the callback function panics, the transaction rolls back and the
//     panic is re-raised.
//   - SQLite uses BEGIN IMMEDIATE (via the _txlock=immediate DSN option) to
//     acquire the writer lock up front, avoiding deadlocks between
//     contending cooperative transactions.
type Transaction interface {
	InsertEvent(ctx context.Context, e *types.Event) error
	GetEvent(ctx context.Context, id types.EventId) (*types.Event, error)
	NextSequence(ctx context.Context, sessionID types.SessionId) (int64, error)

	CreateSession(ctx context.Context, s *types.Session) error
	GetSession(ctx context.Context, id types.SessionId) (*types.Session, error)
	SetSessionRoot(ctx context.Context, id types.SessionId, rootEventID types.EventId) error
	AdvanceSessionHead(ctx context.Context, id types.SessionId, head types.EventId) error
	ApplyCounterDelta(ctx context.Context, id types.SessionId, delta types.CounterDelta) error

	IndexEvent(ctx context.Context, id types.EventId, eventType types.EventType, text, toolName string) error
}

// Storage is the C1 storage backend (§4.1): primitive CRUD on events,
// sessions, workspaces, blobs, and branches, plus the transaction
// primitives the append/fork engines build on.
type Storage interface {
	// Workspaces
	CreateWorkspace(ctx context.Context, w *types.Workspace) error
	GetWorkspace(ctx context.Context, id types.WorkspaceId) (*types.Workspace, error)
	GetWorkspaceByPath(ctx context.Context, path string) (*types.Workspace, error)
	GetOrCreateWorkspace(ctx context.Context, path string) (*types.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]*types.Workspace, error)

	// Sessions
	GetSession(ctx context.Context, id types.SessionId) (*types.Session, error)
	ListSessions(ctx context.Context, workspaceID types.WorkspaceId) ([]*types.Session, error)
	SetSessionLatestModel(ctx context.Context, id types.SessionId, model string) error
	EndSession(ctx context.Context, id types.SessionId) error

	// Events
	GetEvent(ctx context.Context, id types.EventId) (*types.Event, error)
	GetEvents(ctx context.Context, ids []types.EventId) ([]*types.Event, error)
	GetChildren(ctx context.Context, sessionID types.SessionId, parentID types.EventId) ([]*types.Event, error)
	GetAncestors(ctx context.Context, target types.EventId) ([]*types.Event, error)

	// Blobs
	PutBlob(ctx context.Context, b *types.Blob) (*types.Blob, error)
	GetBlob(ctx context.Context, id types.BlobId) (*types.Blob, error)

	// Branches
	CreateBranch(ctx context.Context, b *types.Branch) error
	GetBranch(ctx context.Context, id types.BranchId) (*types.Branch, error)
	ListBranches(ctx context.Context, sessionID types.SessionId) ([]*types.Branch, error)
	SetDefaultBranch(ctx context.Context, sessionID types.SessionId, id types.BranchId) error
	UpdateBranchHead(ctx context.Context, id types.BranchId, head types.EventId) error

	// Search
	Search(ctx context.Context, opts types.SearchOptions) ([]types.SearchResult, error)

	// Invariants and repair (supplemented features)
	VerifyInvariants(ctx context.Context) (InvariantReport, error)
	RecomputeSessionCounters(ctx context.Context, sessionID types.SessionId) error

	// RunInTransaction executes fn inside a cooperative transaction (§4.1).
	// Used by the append and fork engines, whose multi-step writes must be
	// atomic.
	//
	//	err := store.RunInTransaction(ctx, func(tx Transaction) error {
	//	    if err := tx.InsertEvent(ctx, e); err != nil {
	//	        return err // triggers rollback
	//	    }
	//	    return nil // triggers commit
	//	})
	RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error

	// Lifecycle
	Close() error
	Path() string

	// UnderlyingDB exposes the raw connection for the migration runner, the
	// doctor/invariant CLI, and package-level tests. Direct use bypasses the
	// storage layer's invariant guarantees; prefer the typed methods above.
	UnderlyingDB() *sql.DB
}

// InvariantReport mirrors sqlite.InvariantReport at the interface boundary
// so callers of Storage don't need to import the concrete backend package.
type InvariantReport struct {
	OrphanedEvents     int64
	DuplicateSequences int64
	NonDenseSequences  int64
	UnreachableHeads   int64
	BadRootEvents      int64
	CounterDrift       int64
}

// Clean reports whether no violation was found.
func (r InvariantReport) Clean() bool {
	return r.OrphanedEvents == 0 && r.DuplicateSequences == 0 && r.NonDenseSequences == 0 &&
		r.UnreachableHeads == 0 && r.BadRootEvents == 0 && r.CounterDrift == 0
}

// Config holds database configuration (§6).
type Config struct {
	Path          string
	EnableWAL     bool
	BusyTimeoutMs int
}

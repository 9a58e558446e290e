package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/sessiontree/sessiontree/internal/storage"
	"github.com/sessiontree/sessiontree/internal/types"
)

// Store is the concrete C1 storage backend: a single *sql.DB plus the
// primitive operations above, implementing storage.Storage and, across a
// cooperative transaction, storage.Transaction.
type Store struct {
	db   *sql.DB
	path string
}

// New opens and migrates a Store at cfg.Path.
func New(cfg storage.Config) (*Store, error) {
	db, err := Open(Config{Path: cfg.Path, EnableWAL: cfg.EnableWAL, BusyTimeoutMs: cfg.BusyTimeoutMs})
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: cfg.Path}, nil
}

func (s *Store) Close() error      { return s.db.Close() }
func (s *Store) Path() string      { return s.path }
func (s *Store) UnderlyingDB() *sql.DB { return s.db }

func (s *Store) CreateWorkspace(ctx context.Context, w *types.Workspace) error {
	return CreateWorkspace(ctx, s.db, w)
}
func (s *Store) GetWorkspace(ctx context.Context, id types.WorkspaceId) (*types.Workspace, error) {
	return GetWorkspace(ctx, s.db, id)
}
func (s *Store) GetWorkspaceByPath(ctx context.Context, path string) (*types.Workspace, error) {
	return GetWorkspaceByPath(ctx, s.db, path)
}
func (s *Store) GetOrCreateWorkspace(ctx context.Context, path string) (*types.Workspace, error) {
	return GetOrCreateWorkspace(ctx, s.db, path)
}
func (s *Store) ListWorkspaces(ctx context.Context) ([]*types.Workspace, error) {
	return ListWorkspaces(ctx, s.db)
}

func (s *Store) GetSession(ctx context.Context, id types.SessionId) (*types.Session, error) {
	return GetSession(ctx, s.db, id)
}
func (s *Store) ListSessions(ctx context.Context, workspaceID types.WorkspaceId) ([]*types.Session, error) {
	return ListSessions(ctx, s.db, workspaceID)
}
func (s *Store) SetSessionLatestModel(ctx context.Context, id types.SessionId, model string) error {
	return SetSessionLatestModel(ctx, s.db, id, model)
}
func (s *Store) EndSession(ctx context.Context, id types.SessionId) error {
	return EndSession(ctx, s.db, id, time.Now())
}

func (s *Store) GetEvent(ctx context.Context, id types.EventId) (*types.Event, error) {
	return GetEvent(ctx, s.db, id)
}
func (s *Store) GetEvents(ctx context.Context, ids []types.EventId) ([]*types.Event, error) {
	return GetEvents(ctx, s.db, ids)
}
func (s *Store) GetChildren(ctx context.Context, sessionID types.SessionId, parentID types.EventId) ([]*types.Event, error) {
	return GetChildren(ctx, s.db, sessionID, parentID)
}
func (s *Store) GetAncestors(ctx context.Context, target types.EventId) ([]*types.Event, error) {
	return GetAncestors(ctx, s.db, target)
}

func (s *Store) PutBlob(ctx context.Context, b *types.Blob) (*types.Blob, error) {
	return PutBlob(ctx, s.db, b)
}
func (s *Store) GetBlob(ctx context.Context, id types.BlobId) (*types.Blob, error) {
	return GetBlob(ctx, s.db, id)
}

func (s *Store) CreateBranch(ctx context.Context, b *types.Branch) error {
	return CreateBranch(ctx, s.db, b)
}
func (s *Store) GetBranch(ctx context.Context, id types.BranchId) (*types.Branch, error) {
	return GetBranch(ctx, s.db, id)
}
func (s *Store) ListBranches(ctx context.Context, sessionID types.SessionId) ([]*types.Branch, error) {
	return ListBranches(ctx, s.db, sessionID)
}
func (s *Store) SetDefaultBranch(ctx context.Context, sessionID types.SessionId, id types.BranchId) error {
	return SetDefaultBranch(ctx, s.db, sessionID, id)
}
func (s *Store) UpdateBranchHead(ctx context.Context, id types.BranchId, head types.EventId) error {
	return UpdateBranchHead(ctx, s.db, id, head)
}

func (s *Store) Search(ctx context.Context, opts types.SearchOptions) ([]types.SearchResult, error) {
	return Search(ctx, s.db, opts)
}

func (s *Store) VerifyInvariants(ctx context.Context) (storage.InvariantReport, error) {
	r, err := VerifyInvariants(s.db)
	return storage.InvariantReport{
		OrphanedEvents:     r.OrphanedEvents,
		DuplicateSequences: r.DuplicateSequences,
		NonDenseSequences:  r.NonDenseSequences,
		UnreachableHeads:   r.UnreachableHeads,
		BadRootEvents:      r.BadRootEvents,
		CounterDrift:       r.CounterDrift,
	}, err
}
func (s *Store) RecomputeSessionCounters(ctx context.Context, sessionID types.SessionId) error {
	return RecomputeSessionCounters(s.db, string(sessionID))
}

// RunInTransaction implements storage.Storage's cooperative-transaction
// primitive (§4.1). txWrapper below adapts the raw *sql.Tx-based primitives
// to storage.Transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	ctxTx, err := BeginCooperative(ctx, s.db)
	if err != nil {
		return err
	}
	w := &txWrapper{ctx: ctx, tx: ctxTx}
	defer func() {
		if p := recover(); p != nil {
			ctxTx.Rollback()
			panic(p)
		}
	}()
	if err := fn(w); err != nil {
		ctxTx.Rollback()
		return err
	}
	return ctxTx.Commit()
}

// txWrapper adapts a *CooperativeTx to storage.Transaction.
type txWrapper struct {
	ctx context.Context
	tx  *CooperativeTx
}

func (w *txWrapper) InsertEvent(ctx context.Context, e *types.Event) error {
	return InsertEvent(ctx, w.tx.Tx(), e)
}
func (w *txWrapper) GetEvent(ctx context.Context, id types.EventId) (*types.Event, error) {
	return GetEvent(ctx, w.tx.Tx(), id)
}
func (w *txWrapper) NextSequence(ctx context.Context, sessionID types.SessionId) (int64, error) {
	return NextSequence(ctx, w.tx.Tx(), sessionID)
}
func (w *txWrapper) CreateSession(ctx context.Context, s *types.Session) error {
	return CreateSession(ctx, w.tx.Tx(), s)
}
func (w *txWrapper) GetSession(ctx context.Context, id types.SessionId) (*types.Session, error) {
	return GetSession(ctx, w.tx.Tx(), id)
}
func (w *txWrapper) SetSessionRoot(ctx context.Context, id types.SessionId, rootEventID types.EventId) error {
	return SetSessionRoot(ctx, w.tx.Tx(), id, rootEventID)
}
func (w *txWrapper) AdvanceSessionHead(ctx context.Context, id types.SessionId, head types.EventId) error {
	return AdvanceSessionHead(ctx, w.tx.Tx(), id, head, time.Now())
}
func (w *txWrapper) ApplyCounterDelta(ctx context.Context, id types.SessionId, delta types.CounterDelta) error {
	return ApplyCounterDelta(ctx, w.tx.Tx(), id, delta)
}
func (w *txWrapper) IndexEvent(ctx context.Context, id types.EventId, eventType types.EventType, text, toolName string) error {
	return IndexEvent(ctx, w.tx.Tx(), id, eventType, text, toolName)
}

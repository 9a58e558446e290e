// Package storage tests for interface compliance and contract verification.
package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/sessiontree/sessiontree/internal/types"
)

// Compile-time interface conformance checks.
var (
	_ Storage     = (*mockStorage)(nil)
	_ Transaction = (*mockTransaction)(nil)
)

// mockStorage is a minimal mock for interface testing.
type mockStorage struct{}

func (m *mockStorage) CreateWorkspace(ctx context.Context, w *types.Workspace) error { return nil }
func (m *mockStorage) GetWorkspace(ctx context.Context, id types.WorkspaceId) (*types.Workspace, error) {
	return nil, nil
}
func (m *mockStorage) GetWorkspaceByPath(ctx context.Context, path string) (*types.Workspace, error) {
	return nil, nil
}
func (m *mockStorage) GetOrCreateWorkspace(ctx context.Context, path string) (*types.Workspace, error) {
	return nil, nil
}
func (m *mockStorage) ListWorkspaces(ctx context.Context) ([]*types.Workspace, error) { return nil, nil }

func (m *mockStorage) GetSession(ctx context.Context, id types.SessionId) (*types.Session, error) {
	return nil, nil
}
func (m *mockStorage) ListSessions(ctx context.Context, workspaceID types.WorkspaceId) ([]*types.Session, error) {
	return nil, nil
}
func (m *mockStorage) SetSessionLatestModel(ctx context.Context, id types.SessionId, model string) error {
	return nil
}
func (m *mockStorage) EndSession(ctx context.Context, id types.SessionId) error { return nil }

func (m *mockStorage) GetEvent(ctx context.Context, id types.EventId) (*types.Event, error) {
	return nil, nil
}
func (m *mockStorage) GetEvents(ctx context.Context, ids []types.EventId) ([]*types.Event, error) {
	return nil, nil
}
func (m *mockStorage) GetChildren(ctx context.Context, sessionID types.SessionId, parentID types.EventId) ([]*types.Event, error) {
	return nil, nil
}
func (m *mockStorage) GetAncestors(ctx context.Context, target types.EventId) ([]*types.Event, error) {
	return nil, nil
}

func (m *mockStorage) PutBlob(ctx context.Context, b *types.Blob) (*types.Blob, error) {
	return nil, nil
}
func (m *mockStorage) GetBlob(ctx context.Context, id types.BlobId) (*types.Blob, error) {
	return nil, nil
}

func (m *mockStorage) CreateBranch(ctx context.Context, b *types.Branch) error { return nil }
func (m *mockStorage) GetBranch(ctx context.Context, id types.BranchId) (*types.Branch, error) {
	return nil, nil
}
func (m *mockStorage) ListBranches(ctx context.Context, sessionID types.SessionId) ([]*types.Branch, error) {
	return nil, nil
}
func (m *mockStorage) SetDefaultBranch(ctx context.Context, sessionID types.SessionId, id types.BranchId) error {
	return nil
}
func (m *mockStorage) UpdateBranchHead(ctx context.Context, id types.BranchId, head types.EventId) error {
	return nil
}

func (m *mockStorage) Search(ctx context.Context, opts types.SearchOptions) ([]types.SearchResult, error) {
	return nil, nil
}

func (m *mockStorage) VerifyInvariants(ctx context.Context) (InvariantReport, error) {
	return InvariantReport{}, nil
}
func (m *mockStorage) RecomputeSessionCounters(ctx context.Context, sessionID types.SessionId) error {
	return nil
}

func (m *mockStorage) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error {
	return fn(&mockTransaction{})
}
func (m *mockStorage) Close() error             { return nil }
func (m *mockStorage) Path() string             { return "" }
func (m *mockStorage) UnderlyingDB() *sql.DB    { return nil }

// mockTransaction is a minimal mock for Transaction interface testing.
type mockTransaction struct{}

func (m *mockTransaction) InsertEvent(ctx context.Context, e *types.Event) error { return nil }
func (m *mockTransaction) GetEvent(ctx context.Context, id types.EventId) (*types.Event, error) {
	return nil, nil
}
func (m *mockTransaction) NextSequence(ctx context.Context, sessionID types.SessionId) (int64, error) {
	return 0, nil
}
func (m *mockTransaction) CreateSession(ctx context.Context, s *types.Session) error { return nil }
func (m *mockTransaction) GetSession(ctx context.Context, id types.SessionId) (*types.Session, error) {
	return nil, nil
}
func (m *mockTransaction) SetSessionRoot(ctx context.Context, id types.SessionId, rootEventID types.EventId) error {
	return nil
}
func (m *mockTransaction) AdvanceSessionHead(ctx context.Context, id types.SessionId, head types.EventId) error {
	return nil
}
func (m *mockTransaction) ApplyCounterDelta(ctx context.Context, id types.SessionId, delta types.CounterDelta) error {
	return nil
}
func (m *mockTransaction) IndexEvent(ctx context.Context, id types.EventId, eventType types.EventType, text, toolName string) error {
	return nil
}

// TestConfig verifies the Config struct has expected fields.
func TestConfig(t *testing.T) {
	cfg := Config{
		Path:          "/tmp/test.db",
		EnableWAL:     true,
		BusyTimeoutMs: 5000,
	}
	if cfg.Path != "/tmp/test.db" {
		t.Errorf("expected path '/tmp/test.db', got %q", cfg.Path)
	}
	if !cfg.EnableWAL {
		t.Errorf("expected EnableWAL true")
	}
	if cfg.BusyTimeoutMs != 5000 {
		t.Errorf("expected BusyTimeoutMs 5000, got %d", cfg.BusyTimeoutMs)
	}
}

// TestInvariantReportClean verifies Clean() reports no violations only when
// every field is zero.
func TestInvariantReportClean(t *testing.T) {
	if !(InvariantReport{}).Clean() {
		t.Error("expected zero-value report to be clean")
	}
	if (InvariantReport{OrphanedEvents: 1}).Clean() {
		t.Error("expected report with orphaned events to be unclean")
	}
}

// TestInterfaceDocumentation verifies interface methods exist with expected
// signatures, catching accidental signature drift.
func TestInterfaceDocumentation(t *testing.T) {
	var s Storage = &mockStorage{}
	_ = s.CreateWorkspace
	_ = s.GetWorkspace
	_ = s.GetOrCreateWorkspace
	_ = s.ListWorkspaces
	_ = s.GetSession
	_ = s.ListSessions
	_ = s.GetEvent
	_ = s.GetEvents
	_ = s.GetChildren
	_ = s.GetAncestors
	_ = s.PutBlob
	_ = s.GetBlob
	_ = s.CreateBranch
	_ = s.ListBranches
	_ = s.Search
	_ = s.VerifyInvariants
	_ = s.RecomputeSessionCounters
	_ = s.RunInTransaction
	_ = s.Close
	_ = s.Path
	_ = s.UnderlyingDB

	var tx Transaction = &mockTransaction{}
	_ = tx.InsertEvent
	_ = tx.GetEvent
	_ = tx.NextSequence
	_ = tx.CreateSession
	_ = tx.ApplyCounterDelta
	_ = tx.IndexEvent
}

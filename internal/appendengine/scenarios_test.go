package appendengine_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sessiontree/sessiontree/internal/appendengine"
	"github.com/sessiontree/sessiontree/internal/fork"
	"github.com/sessiontree/sessiontree/internal/obslog"
	"github.com/sessiontree/sessiontree/internal/pricing"
	"github.com/sessiontree/sessiontree/internal/projection"
	"github.com/sessiontree/sessiontree/internal/storage"
	"github.com/sessiontree/sessiontree/internal/storage/sqlite"
	"github.com/sessiontree/sessiontree/internal/types"
)

// harness wires a fresh in-memory-equivalent database (a tmp-dir file, since
// the driver needs a real path for its WAL/journal files) with the append,
// projection, and fork engines, mirroring how Tree wires them in the
// top-level facade.
type harness struct {
	t      *testing.T
	store  *sqlite.Store
	append *appendengine.Engine
	proj   *projection.Engine
	fork   *fork.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := sqlite.New(storage.Config{Path: dbPath, EnableWAL: true, BusyTimeoutMs: 5000})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	pricer, err := pricing.NewDefault()
	if err != nil {
		t.Fatalf("loading pricing table: %v", err)
	}
	log := obslog.Discard()
	return &harness{
		t:      t,
		store:  store,
		append: appendengine.New(store, pricer, log),
		proj:   projection.New(store),
		fork:   fork.New(store, log),
	}
}

func (h *harness) startSession(model string) *types.Session {
	h.t.Helper()
	ws, err := h.store.GetOrCreateWorkspace(context.Background(), "/w")
	if err != nil {
		h.t.Fatalf("workspace: %v", err)
	}
	sess, _, err := h.append.StartSession(context.Background(), ws.ID, appendengine.StartOptions{Model: model})
	if err != nil {
		h.t.Fatalf("starting session: %v", err)
	}
	return sess
}

func (h *harness) appendText(sessionID types.SessionId, eventType types.EventType, text string) *types.Event {
	h.t.Helper()
	ev, err := h.append.Append(context.Background(), sessionID, eventType, types.MessagePayload{Text: text}, nil)
	if err != nil {
		h.t.Fatalf("append %s: %v", eventType, err)
	}
	return ev
}

// Scenario 1: fresh session (§8.1).
func TestScenarioFreshSession(t *testing.T) {
	h := newHarness(t)
	sess := h.startSession("claude-sonnet-4-5")

	h.appendText(sess.ID, types.EventMessageUser, "hi")
	h.appendText(sess.ID, types.EventMessageAssistant, "hello")

	messages, err := h.proj.MessagesForSessionHead(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("projecting: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != "user" || messages[0].Content[0].Text != "hi" {
		t.Errorf("unexpected first message: %+v", messages[0])
	}
	if messages[1].Role != "assistant" || messages[1].Content[0].Text != "hello" {
		t.Errorf("unexpected second message: %+v", messages[1])
	}

	updated, err := h.store.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("reloading session: %v", err)
	}
	if updated.MessageCount != 2 {
		t.Errorf("expected message_count 2, got %d", updated.MessageCount)
	}
	if updated.EventCount != 3 {
		t.Errorf("expected event_count 3 (root + 2 messages), got %d", updated.EventCount)
	}
}

// Scenario 2: deleting a user message removes it from the projection, and
// the projection survives a reopen of the database (§8.2).
func TestScenarioDeletedUserMessage(t *testing.T) {
	h := newHarness(t)
	sess := h.startSession("claude-sonnet-4-5")

	userA := h.appendText(sess.ID, types.EventMessageUser, "A")
	h.appendText(sess.ID, types.EventMessageAssistant, "reply-A")
	h.appendText(sess.ID, types.EventMessageUser, "B")
	h.appendText(sess.ID, types.EventMessageAssistant, "reply-B")

	_, err := h.append.Delete(context.Background(), sess.ID, userA.ID, "user_request")
	if err != nil {
		t.Fatalf("deleting: %v", err)
	}

	messages, err := h.proj.MessagesForSessionHead(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("projecting: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages (reply-A, B, reply-B), got %d: %+v", len(messages), messages)
	}
	if messages[0].Content[0].Text != "reply-A" {
		t.Errorf("expected first surviving message to be reply-A, got %+v", messages[0])
	}
	if messages[1].Content[0].Text != "B" {
		t.Errorf("expected second surviving message to be B, got %+v", messages[1])
	}

	if err := h.store.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}
	reopened, err := sqlite.New(storage.Config{Path: h.store.Path(), EnableWAL: true, BusyTimeoutMs: 5000})
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer reopened.Close()
	again, err := projection.New(reopened).MessagesForSessionHead(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("projecting after reopen: %v", err)
	}
	if len(again) != len(messages) {
		t.Fatalf("expected %d messages after reopen, got %d: %+v", len(messages), len(again), again)
	}
	for i := range messages {
		if again[i].Role != messages[i].Role || again[i].Content[0].Text != messages[i].Content[0].Text {
			t.Errorf("message %d differs after reopen: got %+v, want %+v", i, again[i], messages[i])
		}
	}
}

// Deleting a non-deletable event type (here, the session's root
// session.start event) is rejected with ErrInvalidDelete before any
// message.deleted event is appended.
func TestDeleteRejectsNonDeletableType(t *testing.T) {
	h := newHarness(t)
	sess := h.startSession("claude-sonnet-4-5")

	_, err := h.append.Delete(context.Background(), sess.ID, sess.RootEventID, "user_request")
	if !errors.Is(err, types.ErrInvalidDelete) {
		t.Fatalf("expected ErrInvalidDelete, got %v", err)
	}

	updated, err := h.store.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("reloading session: %v", err)
	}
	if updated.EventCount != 1 {
		t.Fatalf("expected the rejected delete to leave event_count at 1 (root only), got %d", updated.EventCount)
	}
}

// Scenario 3: a tool-use/tool-result/continuation triplet, and a dangling
// tool.result with no following assistant is dropped (§8.3).
func TestScenarioToolLoop(t *testing.T) {
	h := newHarness(t)
	sess := h.startSession("claude-sonnet-4-5")

	toolUse := types.Block{Type: types.BlockToolUse, ToolUseID: "t1", ToolName: "read_file"}
	_, err := h.append.Append(context.Background(), sess.ID, types.EventMessageAssistant,
		types.MessagePayload{Content: []types.Block{toolUse}}, nil)
	if err != nil {
		t.Fatalf("appending tool_use: %v", err)
	}
	_, err = h.append.Append(context.Background(), sess.ID, types.EventToolResult,
		types.ToolResultPayload{ToolUseID: "t1", Content: []types.Block{{Type: types.BlockText, Text: "file contents"}}}, nil)
	if err != nil {
		t.Fatalf("appending tool_result: %v", err)
	}
	h.appendText(sess.ID, types.EventMessageAssistant, "done")

	messages, err := h.proj.MessagesForSessionHead(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("projecting: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d: %+v", len(messages), messages)
	}
	if messages[0].Role != "assistant" || messages[1].Role != "user" || messages[2].Role != "assistant" {
		t.Fatalf("expected assistant/user/assistant roles, got %+v", messages)
	}
	if messages[1].Content[0].Type != types.BlockToolResult {
		t.Errorf("expected middle message to carry a tool_result block, got %+v", messages[1])
	}
}

func TestScenarioDanglingToolResultDropped(t *testing.T) {
	h := newHarness(t)
	sess := h.startSession("claude-sonnet-4-5")

	_, err := h.append.Append(context.Background(), sess.ID, types.EventMessageAssistant,
		types.MessagePayload{Content: []types.Block{{Type: types.BlockToolUse, ToolUseID: "t1"}}}, nil)
	if err != nil {
		t.Fatalf("appending tool_use: %v", err)
	}
	_, err = h.append.Append(context.Background(), sess.ID, types.EventToolResult,
		types.ToolResultPayload{ToolUseID: "t1"}, nil)
	if err != nil {
		t.Fatalf("appending tool_result: %v", err)
	}

	messages, err := h.proj.MessagesForSessionHead(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("projecting: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected the projection to end at the assistant message, got %d: %+v", len(messages), messages)
	}
}

// Scenario 4: compaction replaces everything before it with two synthetic
// messages, and the latest turn still projects after it (§8.4).
func TestScenarioCompaction(t *testing.T) {
	h := newHarness(t)
	sess := h.startSession("claude-sonnet-4-5")

	for i := 0; i < 3; i++ {
		h.appendText(sess.ID, types.EventMessageUser, "u")
		h.appendText(sess.ID, types.EventMessageAssistant, "a")
	}
	_, err := h.append.Append(context.Background(), sess.ID, types.EventCompactBoundary, struct{}{}, nil)
	if err != nil {
		t.Fatalf("appending compact.boundary: %v", err)
	}
	_, err = h.append.Append(context.Background(), sess.ID, types.EventCompactSummary, types.CompactSummaryPayload{Summary: "S"}, nil)
	if err != nil {
		t.Fatalf("appending compact.summary: %v", err)
	}
	h.appendText(sess.ID, types.EventMessageUser, "latest-u")
	h.appendText(sess.ID, types.EventMessageAssistant, "latest-a")

	messages, err := h.proj.MessagesForSessionHead(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("projecting: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d: %+v", len(messages), messages)
	}
	if messages[0].Role != "user" || messages[1].Role != "assistant" {
		t.Fatalf("expected the two synthetic compaction messages first, got %+v", messages[:2])
	}
	if messages[2].Content[0].Text != "latest-u" || messages[3].Content[0].Text != "latest-a" {
		t.Fatalf("expected the latest pair last, got %+v", messages[2:])
	}
}

// Scenario 5: context.cleared drops everything before it with no synthetic
// messages (§8.5).
func TestScenarioContextCleared(t *testing.T) {
	h := newHarness(t)
	sess := h.startSession("claude-sonnet-4-5")

	for i := 0; i < 3; i++ {
		h.appendText(sess.ID, types.EventMessageUser, "u")
		h.appendText(sess.ID, types.EventMessageAssistant, "a")
	}
	_, err := h.append.Append(context.Background(), sess.ID, types.EventContextCleared, struct{}{}, nil)
	if err != nil {
		t.Fatalf("appending context.cleared: %v", err)
	}
	h.appendText(sess.ID, types.EventMessageUser, "latest-u")
	h.appendText(sess.ID, types.EventMessageAssistant, "latest-a")

	messages, err := h.proj.MessagesForSessionHead(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("projecting: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected only the latest pair, got %d: %+v", len(messages), messages)
	}
}

// Scenario 6: forking at a mid-chain event carries its ancestor history
// forward while leaving the source session untouched (§8.6).
func TestScenarioFork(t *testing.T) {
	h := newHarness(t)
	sess := h.startSession("claude-sonnet-4-5")

	h.appendText(sess.ID, types.EventMessageUser, "e1")
	h.appendText(sess.ID, types.EventMessageAssistant, "e2")
	e3 := h.appendText(sess.ID, types.EventMessageUser, "e3")
	h.appendText(sess.ID, types.EventMessageAssistant, "e4")
	h.appendText(sess.ID, types.EventMessageUser, "e5")

	forked, _, err := h.fork.Fork(context.Background(), e3.ID, fork.Options{Name: "branch"})
	if err != nil {
		t.Fatalf("forking: %v", err)
	}
	if forked.ParentSessionID == nil || *forked.ParentSessionID != sess.ID {
		t.Fatalf("expected forked session to record its parent session")
	}

	_, err = h.append.Append(context.Background(), forked.ID, types.EventMessageAssistant,
		types.MessagePayload{Text: "f1"}, nil)
	if err != nil {
		t.Fatalf("appending to forked session: %v", err)
	}

	messages, err := h.proj.MessagesForSessionHead(context.Background(), forked.ID)
	if err != nil {
		t.Fatalf("projecting forked head: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected e1/e3's merged content plus f1, got %d: %+v", len(messages), messages)
	}
	if messages[0].Content[0].Text != "e1" {
		t.Fatalf("expected the forked walk to include e1's content, got %+v", messages[0])
	}

	sourceUnchanged, err := h.store.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("reloading source session: %v", err)
	}
	if sourceUnchanged.EventCount != 6 {
		t.Fatalf("expected source session event_count unchanged at 6, got %d", sourceUnchanged.EventCount)
	}
}

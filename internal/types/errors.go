package types

import "errors"

// ErrKind is the closed set of error kinds surfaced at the core's API
// boundary. Callers should use errors.Is against these sentinels rather than
// matching on error strings.
type ErrKind error

var (
	// ErrNotInitialized is returned when an operation is invoked before the
	// backend has been initialized (opened and migrated).
	ErrNotInitialized ErrKind = errors.New("sessiontree: not initialized")

	// ErrSessionNotFound is returned when a session id does not resolve to a row.
	ErrSessionNotFound ErrKind = errors.New("sessiontree: session not found")

	// ErrEventNotFound is returned when an event id does not resolve to a row.
	ErrEventNotFound ErrKind = errors.New("sessiontree: event not found")

	// ErrWorkspaceNotFound is returned when a workspace id does not resolve to a row.
	ErrWorkspaceNotFound ErrKind = errors.New("sessiontree: workspace not found")

	// ErrBranchNotFound is returned when a branch id does not resolve to a row.
	ErrBranchNotFound ErrKind = errors.New("sessiontree: branch not found")

	// ErrNoParent is returned when append cannot resolve a parent event
	// (no parent_id supplied and the session has no head).
	ErrNoParent ErrKind = errors.New("sessiontree: no parent event")

	// ErrSessionHasNoHead is returned by head-based reads on a session whose
	// head is null.
	ErrSessionHasNoHead ErrKind = errors.New("sessiontree: session has no head")

	// ErrInvalidDelete is returned when attempting to delete an event of a
	// non-deletable type.
	ErrInvalidDelete ErrKind = errors.New("sessiontree: event type is not deletable")

	// ErrConflict is returned on a unique-constraint violation (e.g. a
	// duplicate workspace path or a re-inserted event id).
	ErrConflict ErrKind = errors.New("sessiontree: conflict")

	// ErrBusy is returned when the database writer lock could not be
	// acquired within the configured busy timeout. Callers may retry.
	ErrBusy ErrKind = errors.New("sessiontree: busy")

	// ErrIntegrity is returned when a checksum mismatch or invariant
	// violation is detected on read.
	ErrIntegrity ErrKind = errors.New("sessiontree: integrity violation")

	// ErrStorage is the catch-all for I/O or schema errors that do not fit
	// a more specific kind.
	ErrStorage ErrKind = errors.New("sessiontree: storage error")
)

// DeletableTypes is the set of event types that may be the target of a
// message.deleted event.
var DeletableTypes = map[EventType]bool{
	EventMessageUser:      true,
	EventMessageAssistant: true,
	EventToolResult:       true,
}

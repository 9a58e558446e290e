// Package types defines the branded identifiers, event/session/workspace
// records, and closed error-kind enum shared by every sessiontree package.
package types

import (
	"fmt"

	"github.com/google/uuid"
)

// EventId identifies a single event in the append-only log.
type EventId string

// SessionId identifies a session (a pointer into the event tree).
type SessionId string

// WorkspaceId identifies a workspace (a directory-scoped grouping of sessions).
type WorkspaceId string

// BranchId identifies a named head pointer within a session.
type BranchId string

// BlobId identifies a content-addressed blob.
type BlobId string

// NewEventId generates a fresh, time-orderable event id.
func NewEventId() EventId { return EventId("evt_" + uuidv7()) }

// NewSessionId generates a fresh, time-orderable session id.
func NewSessionId() SessionId { return SessionId("ses_" + uuidv7()) }

// NewWorkspaceId generates a fresh, time-orderable workspace id.
func NewWorkspaceId() WorkspaceId { return WorkspaceId("wks_" + uuidv7()) }

// NewBranchId generates a fresh, time-orderable branch id.
func NewBranchId() BranchId { return BranchId("brn_" + uuidv7()) }

// NewBlobId generates a fresh, time-orderable blob id.
func NewBlobId() BlobId { return BlobId("blb_" + uuidv7()) }

func uuidv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the system RNG is broken; a process in that
		// state cannot generate usable ids of any kind.
		panic(fmt.Sprintf("types: uuid v7 generation failed: %v", err))
	}
	return id.String()
}

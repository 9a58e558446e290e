package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sessiontree/sessiontree"
)

var (
	appendSessionID string
	appendType      string
	appendText      string
	appendParentID  string
)

var appendCmd = &cobra.Command{
	Use:     "append",
	GroupID: "sessions",
	Short:   "Append one event to a session's head",
	Long: `Append one event to a session (§4.3). Mainly useful for scripting
tests and demos against a live database; a real agent loop should call the
append engine directly rather than shelling out to this command.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if appendSessionID == "" {
			FatalError("--session is required")
		}

		var payload any
		switch sessiontree.EventType(appendType) {
		case sessiontree.EventMessageUser, sessiontree.EventMessageAssistant, sessiontree.EventMessageSystem:
			payload = sessiontree.MessagePayload{Text: appendText}
		default:
			FatalError("unsupported --type for append: %s (use message.user, message.assistant, or message.system)", appendType)
		}

		var parent *sessiontree.EventId
		if appendParentID != "" {
			id := sessiontree.EventId(appendParentID)
			parent = &id
		}

		ctx := context.Background()
		tree := openTree()
		defer tree.Close()

		ev, err := tree.Append.Append(ctx, sessiontree.SessionId(appendSessionID), sessiontree.EventType(appendType), payload, parent)
		if err != nil {
			FatalError("appending: %v", err)
		}
		fmt.Printf("event %s appended (sequence %d)\n", ev.ID, ev.Sequence)
	},
}

func init() {
	appendCmd.Flags().StringVar(&appendSessionID, "session", "", "session id to append to (required)")
	appendCmd.Flags().StringVar(&appendType, "type", string(sessiontree.EventMessageUser), "event type")
	appendCmd.Flags().StringVar(&appendText, "text", "", "plain-text message content")
	appendCmd.Flags().StringVar(&appendParentID, "parent", "", "parent event id (default: session head)")
	rootCmd.AddCommand(appendCmd)
}

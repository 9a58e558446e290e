package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sessiontree/sessiontree"
	"github.com/sessiontree/sessiontree/internal/ui"
)

var (
	deleteReason string
	deleteYes    bool
)

var deleteCmd = &cobra.Command{
	Use:     "delete <session-id> <event-id>",
	GroupID: "sessions",
	Short:   "Append a message.deleted event against a deletable target (§4.3)",
	Long: `Marks a message.user, message.assistant, or tool.result event as
deleted by appending a message.deleted event that points at it. The target
event is never removed from the log; the projection engine drops it on
future reconstructions. Any other target type is rejected.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if !deleteYes && !ui.PromptYesNo(fmt.Sprintf("delete event %s?", args[1]), false) {
			fmt.Println("aborted")
			return
		}

		ctx := context.Background()
		tree := openTree()
		defer tree.Close()

		ev, err := tree.Append.Delete(ctx, sessiontree.SessionId(args[0]), sessiontree.EventId(args[1]), deleteReason)
		if err != nil {
			FatalError("deleting: %v", err)
		}
		fmt.Printf("event %s appended, marking %s deleted\n", ev.ID, args[1])
	},
}

func init() {
	deleteCmd.Flags().StringVar(&deleteReason, "reason", "", "reason recorded on the message.deleted event")
	deleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

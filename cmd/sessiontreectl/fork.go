package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sessiontree/sessiontree"
	"github.com/sessiontree/sessiontree/internal/fork"
)

var (
	forkModel string
	forkName  string
)

var forkCmd = &cobra.Command{
	Use:     "fork <event-id>",
	GroupID: "sessions",
	Short:   "Branch a new session off an existing event (§4.5)",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		tree := openTree()
		defer tree.Close()

		sess, root, err := tree.Fork.Fork(ctx, sessiontree.EventId(args[0]), fork.Options{Model: forkModel, Name: forkName})
		if err != nil {
			FatalError("forking: %v", err)
		}
		fmt.Printf("forked session %s created (root event %s)\n", sess.ID, root.ID)
	},
}

func init() {
	forkCmd.Flags().StringVar(&forkModel, "model", "", "model for the new session (default: source session's latest model)")
	forkCmd.Flags().StringVar(&forkName, "name", "", "name/title for the forked session")
	rootCmd.AddCommand(forkCmd)
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sessiontree/sessiontree"
)

var statsCmd = &cobra.Command{
	Use:     "stats <session-id>",
	GroupID: "query",
	Short:   "Print a session's denormalized counters",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		tree := openTree()
		defer tree.Close()

		sess, err := tree.Storage().GetSession(ctx, sessiontree.SessionId(args[0]))
		if err != nil {
			FatalError("loading session: %v", err)
		}

		fmt.Printf("session:         %s\n", sess.ID)
		fmt.Printf("workspace:       %s\n", sess.WorkspaceID)
		fmt.Printf("title:           %s\n", sess.Title)
		fmt.Printf("model:           %s\n", sess.LatestModel)
		fmt.Printf("active:          %t\n", sess.IsActive())
		fmt.Printf("events:          %d\n", sess.EventCount)
		fmt.Printf("messages:        %d\n", sess.MessageCount)
		fmt.Printf("turns:           %d\n", sess.TurnCount)
		fmt.Printf("input tokens:    %d\n", sess.InputTokens)
		fmt.Printf("output tokens:   %d\n", sess.OutputTokens)
		fmt.Printf("cache read:      %d\n", sess.CacheReadTokens)
		fmt.Printf("cache create:    %d\n", sess.CacheCreateTokens)
		fmt.Printf("last turn input: %d\n", sess.LastTurnInputTokens)
		fmt.Printf("cost (USD):      %.4f\n", sess.CostUSD)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

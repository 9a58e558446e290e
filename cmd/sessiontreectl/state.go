package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sessiontree/sessiontree"
)

var stateEventID string

var stateCmd = &cobra.Command{
	Use:     "state <session-id>",
	GroupID: "query",
	Short:   "Print the richer session-state projection: effective config plus accumulated usage (§4.4)",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		tree := openTree()
		defer tree.Close()

		target := sessiontree.EventId(stateEventID)
		if target == "" {
			sess, err := tree.Storage().GetSession(ctx, sessiontree.SessionId(args[0]))
			if err != nil {
				FatalError("loading session: %v", err)
			}
			if sess.HeadEventID == nil {
				FatalError("session %s has no head event", args[0])
			}
			target = *sess.HeadEventID
		}

		st, err := tree.Project.State(ctx, target)
		if err != nil {
			FatalError("projecting state: %v", err)
		}

		fmt.Printf("model:            %s\n", st.Model)
		fmt.Printf("reasoning level:  %s\n", st.ReasoningLevel)
		fmt.Printf("system prompt:    %s\n", st.SystemPrompt)
		fmt.Printf("working dir:      %s\n", st.WorkingDir)
		fmt.Printf("messages:         %d\n", len(st.Messages))
		fmt.Printf("turns:            %d\n", st.TurnCount)
		fmt.Printf("input tokens:     %d\n", st.InputTokens)
		fmt.Printf("output tokens:    %d\n", st.OutputTokens)
		fmt.Printf("cache read:       %d\n", st.CacheReadTokens)
		fmt.Printf("cache create:     %d\n", st.CacheCreateTokens)
	},
}

func init() {
	stateCmd.Flags().StringVar(&stateEventID, "event", "", "project from this event instead of the session head")
	rootCmd.AddCommand(stateCmd)
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/sessiontree/sessiontree"
	"github.com/sessiontree/sessiontree/internal/ui"
)

var (
	searchWorkspaceID string
	searchSessionID   string
	searchSince       string
	searchUntil       string
	searchLimit       int
)

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	GroupID: "query",
	Short:   "Full-text search over events (§4.6)",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := sessiontree.SearchOptions{
			Query:       args[0],
			WorkspaceID: sessiontree.WorkspaceId(searchWorkspaceID),
			SessionID:   sessiontree.SessionId(searchSessionID),
			Limit:       searchLimit,
		}

		w := when.New(nil)
		w.Add(en.All...)
		w.Add(common.All...)

		if searchSince != "" {
			t, err := parseRelativeTime(w, searchSince)
			if err != nil {
				FatalError("--since: %v", err)
			}
			opts.Since = t
		}
		if searchUntil != "" {
			t, err := parseRelativeTime(w, searchUntil)
			if err != nil {
				FatalError("--until: %v", err)
			}
			opts.Until = t
		}

		ctx := context.Background()
		tree := openTree()
		defer tree.Close()

		results, err := tree.Search(ctx, opts)
		if err != nil {
			FatalError("searching: %v", err)
		}

		if len(results) == 0 {
			fmt.Println(ui.RenderNoResults(args[0], []string{"try a shorter query", "drop the --session/--workspace scope"}, ui.GetWidth()))
			return
		}
		fmt.Println(ui.RenderResults(args[0], results, ui.GetWidth()))
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchWorkspaceID, "workspace", "", "scope to a workspace id")
	searchCmd.Flags().StringVar(&searchSessionID, "session", "", "scope to a session id")
	searchCmd.Flags().StringVar(&searchSince, "since", "", `relative or natural-language time, e.g. "3 days ago"`)
	searchCmd.Flags().StringVar(&searchUntil, "until", "", `relative or natural-language time, e.g. "yesterday"`)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum results")
	rootCmd.AddCommand(searchCmd)
}

func parseRelativeTime(w *when.Parser, s string) (time.Time, error) {
	r, err := w.Parse(s, time.Now())
	if err != nil {
		return time.Time{}, err
	}
	if r == nil {
		return time.Time{}, errNotParsed(s)
	}
	return r.Time, nil
}

type errNotParsed string

func (e errNotParsed) Error() string { return "could not parse time expression: " + string(e) }

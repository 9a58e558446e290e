package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sessiontree/sessiontree"
	"github.com/sessiontree/sessiontree/internal/ui"
)

var showEventID string

var showCmd = &cobra.Command{
	Use:     "show <session-id>",
	GroupID: "query",
	Short:   "Project and render a session's message list",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		tree := openTree()
		defer tree.Close()

		sessionID := sessiontree.SessionId(args[0])
		var messages []sessiontree.Message
		var err error
		if showEventID != "" {
			messages, err = tree.Project.Messages(ctx, sessiontree.EventId(showEventID))
		} else {
			messages, err = tree.Project.MessagesForSessionHead(ctx, sessionID)
		}
		if err != nil {
			FatalError("projecting: %v", err)
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(ui.GetWidth()),
		)
		if err != nil {
			FatalError("building renderer: %v", err)
		}

		roleStyle := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorAccent)
		for _, m := range messages {
			fmt.Println(roleStyle.Render(strings.ToUpper(m.Role)))
			md := blocksToMarkdown(m.Content)
			out, err := renderer.Render(md)
			if err != nil {
				fmt.Println(md)
				continue
			}
			fmt.Print(out)
		}
	},
}

func init() {
	showCmd.Flags().StringVar(&showEventID, "event", "", "project from this event instead of the session head")
	rootCmd.AddCommand(showCmd)
}

// blocksToMarkdown renders a message's content blocks as Markdown-ish
// source text for glamour.
func blocksToMarkdown(blocks []sessiontree.Block) string {
	var b strings.Builder
	for _, blk := range blocks {
		switch blk.Type {
		case sessiontree.BlockText:
			b.WriteString(blk.Text)
			b.WriteString("\n\n")
		case sessiontree.BlockThinking:
			fmt.Fprintf(&b, "> _thinking:_ %s\n\n", blk.Thinking)
		case sessiontree.BlockToolUse:
			fmt.Fprintf(&b, "```\n%s(%v)\n```\n\n", blk.ToolName, blk.ToolInput)
		case sessiontree.BlockToolResult:
			fmt.Fprintf(&b, "```\n%s\n```\n\n", blocksToPlainText(blk.Content))
		case sessiontree.BlockImage:
			b.WriteString("[image]\n\n")
		}
	}
	return b.String()
}

func blocksToPlainText(blocks []sessiontree.Block) string {
	var b strings.Builder
	for _, blk := range blocks {
		if blk.Type == sessiontree.BlockText {
			b.WriteString(blk.Text)
		}
	}
	return b.String()
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/sessiontree/sessiontree/internal/appendengine"
)

var (
	createSessionNonInteractive bool
	createSessionWorkspacePath  string
	createSessionModel          string
	createSessionTitle          string
	createSessionSystemPrompt   string
)

var createSessionCmd = &cobra.Command{
	Use:     "create-session",
	GroupID: "sessions",
	Short:   "Start a new session, prompting interactively unless --non-interactive",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		raw := createSessionFormValues{
			WorkspacePath: createSessionWorkspacePath,
			Model:         createSessionModel,
			Title:         createSessionTitle,
			SystemPrompt:  createSessionSystemPrompt,
		}
		if !createSessionNonInteractive {
			if err := runCreateSessionForm(&raw); err != nil {
				if err == huh.ErrUserAborted {
					fmt.Fprintln(os.Stderr, "session creation canceled.")
					os.Exit(0)
				}
				FatalError("form error: %v", err)
			}
		}
		if raw.WorkspacePath == "" {
			wd, err := os.Getwd()
			if err != nil {
				FatalError("resolving working directory: %v", err)
			}
			raw.WorkspacePath = wd
		}

		ctx := context.Background()
		tree := openTree()
		defer tree.Close()

		ws, err := tree.Storage().GetOrCreateWorkspace(ctx, raw.WorkspacePath)
		if err != nil {
			FatalError("resolving workspace: %v", err)
		}

		sess, root, err := tree.Append.StartSession(ctx, ws.ID, appendengine.StartOptions{
			Model:        raw.Model,
			WorkingDir:   raw.WorkspacePath,
			Title:        raw.Title,
			SystemPrompt: raw.SystemPrompt,
		})
		if err != nil {
			FatalError("starting session: %v", err)
		}

		fmt.Printf("session %s created (root event %s)\n", sess.ID, root.ID)
	},
}

func init() {
	createSessionCmd.Flags().BoolVar(&createSessionNonInteractive, "non-interactive", false, "skip the form and use flag values directly")
	createSessionCmd.Flags().StringVar(&createSessionWorkspacePath, "workspace", "", "workspace path (default: current directory)")
	createSessionCmd.Flags().StringVar(&createSessionModel, "model", "claude-sonnet-4-5", "model name")
	createSessionCmd.Flags().StringVar(&createSessionTitle, "title", "", "session title")
	createSessionCmd.Flags().StringVar(&createSessionSystemPrompt, "system-prompt", "", "system prompt text")
	rootCmd.AddCommand(createSessionCmd)
}

type createSessionFormValues struct {
	WorkspacePath string
	Model         string
	Title         string
	SystemPrompt  string
}

func runCreateSessionForm(v *createSessionFormValues) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Workspace path").
				Description("Absolute path identifying the project (optional, defaults to cwd)").
				Value(&v.WorkspacePath),

			huh.NewSelect[string]().
				Title("Model").
				Options(
					huh.NewOption("claude-sonnet-4-5", "claude-sonnet-4-5"),
					huh.NewOption("claude-opus-4-1", "claude-opus-4-1"),
					huh.NewOption("claude-haiku-4-5", "claude-haiku-4-5"),
				).
				Value(&v.Model),

			huh.NewInput().
				Title("Title").
				Description("Optional session title").
				Value(&v.Title),

			huh.NewText().
				Title("System prompt").
				Description("Optional system prompt text").
				CharLimit(5000).
				Value(&v.SystemPrompt),
		),
	).WithTheme(huh.ThemeDracula())

	return form.Run()
}

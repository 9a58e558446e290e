package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sessiontree/sessiontree"
	"github.com/sessiontree/sessiontree/internal/ui"
)

var doctorRepairSession string

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: "admin",
	Short:   "Check the I1-I4 and I7 consistency invariants (§3), repairing counters with --repair",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		tree := openTree()
		defer tree.Close()

		if doctorRepairSession != "" {
			if err := tree.RecomputeSessionCounters(ctx, sessiontree.SessionId(doctorRepairSession)); err != nil {
				FatalError("repairing session %s: %v", doctorRepairSession, err)
			}
			fmt.Printf("recomputed counters for session %s\n", doctorRepairSession)
			return
		}

		report, err := tree.VerifyInvariants(ctx)
		if err != nil {
			FatalError("verifying invariants: %v", err)
		}
		if report.Clean() {
			fmt.Println(ui.TableSuccessStyle.Render("all invariants hold"))
			return
		}

		fmt.Println(ui.TableWarningStyle.Render("invariant violations found:"))
		fmt.Printf("  orphaned events (I1):      %d\n", report.OrphanedEvents)
		fmt.Printf("  duplicate sequences (I2):  %d\n", report.DuplicateSequences)
		fmt.Printf("  non-dense sequences (I2):  %d\n", report.NonDenseSequences)
		fmt.Printf("  unreachable heads (I3):    %d\n", report.UnreachableHeads)
		fmt.Printf("  bad root events (I4):      %d\n", report.BadRootEvents)
		fmt.Printf("  counter drift (I7):        %d\n", report.CounterDrift)
	},
}

func init() {
	doctorCmd.Flags().StringVar(&doctorRepairSession, "repair", "", "recompute denormalized counters for this session id instead of reporting")
	rootCmd.AddCommand(doctorCmd)
}

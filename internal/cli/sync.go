package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/conductor/internal/ports/primary"
	"github.com/example/conductor/internal/wire"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Process pending discoveries and check for drift",
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Process all pending discoveries in order",
	Long:  "Deduplicates, detects constraint conflicts, escalates urgency, and applies each discovery's effect. Failing records stay pending.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		report, err := wire.SyncService().Synchronize(context.Background(), primary.SynchronizeRequest{
			DryRun: dryRun,
		})
		if err != nil {
			return fmt.Errorf("failed to synchronize: %w", err)
		}

		if report.Processed == 0 {
			fmt.Println("No pending discoveries.")
			return nil
		}

		header := "Synchronized"
		if dryRun {
			header = color.New(color.FgYellow).Sprint("Dry run:") + " would synchronize"
		}
		fmt.Printf("%s %d discover(ies): %d applied, %d deduped, %d conflicts, %d escalated, %d flagged, %d errors\n\n",
			header, report.Processed, report.Applied, report.Deduped,
			report.Conflicts, report.Escalated, report.Flagged, report.Errors)

		for _, d := range report.Details {
			marker := "✓"
			if d.Error != "" {
				marker = color.New(color.FgRed).Sprint("✗")
			} else if d.Duplicate {
				marker = "≡"
			}
			fmt.Printf("  %s %s [%s/%s]\n", marker, d.DiscoveryID, d.Classification, renderUrgency(d.Urgency))
			if d.Action != "" {
				fmt.Printf("      %s\n", d.Action)
			}
			if d.Error != "" {
				fmt.Printf("      error: %s (left pending)\n", d.Error)
			}
		}
		return nil
	},
}

var syncCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report interface mismatches and stale constraint watermarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := wire.SyncService().CheckDrift(context.Background())
		if err != nil {
			return fmt.Errorf("failed to check drift: %w", err)
		}

		if report.InSync {
			fmt.Println("✓ No drift: interfaces consistent, all tracks at head constraint version.")
			return nil
		}

		if len(report.InterfaceMismatches) > 0 {
			fmt.Println(color.New(color.FgRed).Sprint("Interface mismatches:"))
			for _, m := range report.InterfaceMismatches {
				fmt.Printf("  %s consumed by %s but owned by no track\n",
					m.Interface, strings.Join(m.Consumers, ", "))
			}
		}
		if len(report.StaleTracks) > 0 {
			fmt.Println(color.New(color.FgYellow).Sprint("Stale tracks:"))
			for _, s := range report.StaleTracks {
				fmt.Printf("  %s at constraint v%d (head is v%d)\n", s.TrackID, s.Current, s.Head)
			}
		}
		return nil
	},
}

func init() {
	syncRunCmd.Flags().Bool("dry-run", false, "Report actions without mutating the store")

	syncCmd.AddCommand(syncRunCmd)
	syncCmd.AddCommand(syncCheckCmd)
}

// SyncCmd returns the sync command
func SyncCmd() *cobra.Command {
	return syncCmd
}

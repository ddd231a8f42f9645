package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/conductor/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show engine-wide progress per wave",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := wire.StatusService().Progress(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get progress: %w", err)
			}

			if report.TotalTracks == 0 {
				fmt.Println("No tracks yet. Run `conductor track create` or `conductor plan import` to get started.")
				return nil
			}

			fmt.Printf("%s %d track(s), %.0f%% complete (complexity-weighted)\n\n",
				color.New(color.FgHiMagenta).Sprint("Progress:"),
				report.TotalTracks, report.WeightedPercent)

			for _, w := range report.Waves {
				label := fmt.Sprintf("Wave %d", w.Wave)
				if w.Wave == 0 {
					label = "Unscheduled"
				}
				fmt.Printf("%s (%s)\n", color.New(color.FgHiCyan).Sprint(label), summarizeStatuses(w.ByStatus))
				for _, t := range w.Tracks {
					fmt.Printf("  %s %s [%s] %s\n", statusIcon(t.Status), t.TrackID, t.Complexity, t.Title)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func summarizeStatuses(byStatus map[string]int) string {
	keys := make([]string, 0, len(byStatus))
	for k := range byStatus {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%d %s", byStatus[k], k)
	}
	return out
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/conductor/internal/wire"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Validate and schedule the dependency graph",
}

var graphValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the dependency graph for cycles",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := wire.GraphService().ValidateGraph(context.Background())
		if err != nil {
			return fmt.Errorf("failed to validate graph: %w", err)
		}

		if report.Acyclic {
			fmt.Printf("✓ Graph is acyclic (%d tracks, %d edges)\n", report.NodeCount, report.EdgeCount)
			return nil
		}

		fmt.Printf("%s Cycle detected: %s\n",
			color.New(color.FgRed).Sprint("✗"),
			strings.Join(report.CyclePath, " -> "))
		return fmt.Errorf("dependency graph is cyclic")
	},
}

var graphCheckCmd = &cobra.Command{
	Use:   "check [from-track] [to-track]",
	Short: "Check whether a new dependency edge would create a cycle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := wire.GraphService().CheckEdge(context.Background(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to check edge: %w", err)
		}

		if report.Cycle {
			fmt.Printf("%s Edge %s -> %s would create a cycle\n",
				color.New(color.FgRed).Sprint("✗"), report.From, report.To)
			return fmt.Errorf("edge would create a cycle")
		}
		fmt.Printf("✓ Edge %s -> %s is safe\n", report.From, report.To)
		return nil
	},
}

var graphScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Compute wave schedule and assign wave numbers",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := wire.GraphService().ScheduleWaves(context.Background())
		if err != nil {
			return fmt.Errorf("failed to schedule waves: %w", err)
		}

		fmt.Printf("✓ Scheduled %d track(s) into %d wave(s):\n\n", report.TotalTracks, len(report.Waves))
		for i, wave := range report.Waves {
			fmt.Printf("  Wave %d: %s\n", i+1, strings.Join(wave, ", "))
		}
		return nil
	},
}

func init() {
	graphCmd.AddCommand(graphValidateCmd)
	graphCmd.AddCommand(graphCheckCmd)
	graphCmd.AddCommand(graphScheduleCmd)
}

// GraphCmd returns the graph command
func GraphCmd() *cobra.Command {
	return graphCmd
}

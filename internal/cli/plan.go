package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/conductor/internal/wire"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Import planning-phase output",
}

var planImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import tracks and dependencies from a YAML plan file",
	Long:  "Validates the combined graph before writing anything: a plan that would make the graph cyclic is rejected whole",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := wire.PlanService().ImportPlan(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to import plan: %w", err)
		}

		fmt.Printf("✓ Imported %d track(s), %d dependenc(ies), %d wave(s)\n\n",
			len(report.TracksCreated), report.EdgesCreated, len(report.Waves))
		for i, wave := range report.Waves {
			fmt.Printf("  Wave %d: %s\n", i+1, strings.Join(wave, ", "))
		}
		return nil
	},
}

func init() {
	planCmd.AddCommand(planImportCmd)
}

// PlanCmd returns the plan command
func PlanCmd() *cobra.Command {
	return planCmd
}

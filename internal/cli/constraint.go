package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/conductor/internal/ports/primary"
	"github.com/example/conductor/internal/wire"
)

var constraintCmd = &cobra.Command{
	Use:   "constraint",
	Short: "Manage the versioned constraint set",
}

var constraintAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Append a new constraint version",
	Long:  "Appending marks every completed track as needing a patch and leaves its watermark stale until the patch completes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := wire.ConstraintService().AppendConstraint(context.Background(), primary.AppendConstraintRequest{
			Text: strings.Join(args, " "),
		})
		if err != nil {
			return fmt.Errorf("failed to append constraint: %w", err)
		}

		fmt.Printf("✓ Constraint v%d appended\n", resp.Version)
		fmt.Println("  Run `conductor sync check` to see which tracks are now stale.")
		return nil
	},
}

var constraintListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the full constraint history",
	RunE: func(cmd *cobra.Command, args []string) error {
		constraints, err := wire.ConstraintService().ListConstraints(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list constraints: %w", err)
		}

		if len(constraints) == 0 {
			fmt.Println("No constraints recorded.")
			return nil
		}

		for _, c := range constraints {
			origin := ""
			if c.SourceDiscoveryID != "" {
				origin = fmt.Sprintf(" (from %s)", c.SourceDiscoveryID)
			}
			fmt.Printf("  v%d  %s%s\n", c.Version, c.Text, origin)
		}
		return nil
	},
}

func init() {
	constraintCmd.AddCommand(constraintAddCmd)
	constraintCmd.AddCommand(constraintListCmd)
}

// ConstraintCmd returns the constraint command
func ConstraintCmd() *cobra.Command {
	return constraintCmd
}

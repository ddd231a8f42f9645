package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/conductor/internal/cli"
	"github.com/example/conductor/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "conductor",
		Short:   "Conductor - dependency-graph and synchronization engine for parallel tracks",
		Version: version.String(),
		Long: `Conductor manages tracks of implementation work as a dependency graph:
it validates the graph, schedules execution waves, synchronizes discoveries
made mid-flight, and gates wave completion.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.TrackCmd())
	rootCmd.AddCommand(cli.GraphCmd())
	rootCmd.AddCommand(cli.DiscoveryCmd())
	rootCmd.AddCommand(cli.SyncCmd())
	rootCmd.AddCommand(cli.GateCmd())
	rootCmd.AddCommand(cli.ConstraintCmd())
	rootCmd.AddCommand(cli.PlanCmd())
	rootCmd.AddCommand(cli.StatusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

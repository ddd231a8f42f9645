package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/conductor/internal/ports/primary"
	"github.com/example/conductor/internal/wire"
)

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Record and inspect discoveries",
	Long:  "Discoveries are findings raised during track work: missing work, scope changes, new dependencies, constraint changes",
}

var discoveryCreateCmd = &cobra.Command{
	Use:   "create [description]",
	Short: "Record a new discovery",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		classification, _ := cmd.Flags().GetString("type")
		scope, _ := cmd.Flags().GetString("scope")
		affected, _ := cmd.Flags().GetStringSlice("affects")
		urgency, _ := cmd.Flags().GetString("urgency")

		resp, err := wire.SyncService().CreateDiscovery(context.Background(), primary.CreateDiscoveryRequest{
			SourceTrackID:  source,
			Description:    strings.Join(args, " "),
			Classification: classification,
			SuggestedScope: scope,
			AffectedTracks: affected,
			Urgency:        urgency,
		})
		if err != nil {
			return fmt.Errorf("failed to create discovery: %w", err)
		}

		fmt.Printf("✓ Recorded discovery %s\n", resp.DiscoveryID)
		fmt.Println("  Run `conductor sync run` to process pending discoveries.")
		return nil
	},
}

var discoveryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discoveries",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		source, _ := cmd.Flags().GetString("source")
		urgency, _ := cmd.Flags().GetString("urgency")

		discoveries, err := wire.SyncService().ListDiscoveries(context.Background(), primary.DiscoveryFilters{
			Status:        status,
			SourceTrackID: source,
			Urgency:       urgency,
		})
		if err != nil {
			return fmt.Errorf("failed to list discoveries: %w", err)
		}

		if len(discoveries) == 0 {
			fmt.Println("No discoveries found.")
			return nil
		}

		fmt.Printf("Found %d discover(ies):\n\n", len(discoveries))
		for _, d := range discoveries {
			fmt.Printf("  %s [%s/%s] %s from %s\n",
				d.ID, d.Classification, renderUrgency(d.Urgency), d.Status, d.SourceTrackID)
			fmt.Printf("    %s\n", d.Description)
			if d.DuplicateOf != "" {
				fmt.Printf("    duplicate of %s\n", d.DuplicateOf)
			}
			if d.Action != "" {
				fmt.Printf("    → %s\n", d.Action)
			}
		}
		return nil
	},
}

func init() {
	discoveryCreateCmd.Flags().StringP("source", "s", "", "Source track ID (required)")
	discoveryCreateCmd.Flags().StringP("type", "t", "", "Classification: new_track, track_extension, new_dependency, constraint_change, structural_change, interface_mismatch")
	discoveryCreateCmd.Flags().String("scope", "", "Suggested scope of the fix")
	discoveryCreateCmd.Flags().StringSlice("affects", nil, "Affected track IDs")
	discoveryCreateCmd.Flags().StringP("urgency", "u", "backlog", "Urgency: blocking, next_wave, backlog")
	_ = discoveryCreateCmd.MarkFlagRequired("source")
	_ = discoveryCreateCmd.MarkFlagRequired("type")

	discoveryListCmd.Flags().String("status", "", "Filter by status (pending, processed)")
	discoveryListCmd.Flags().String("source", "", "Filter by source track")
	discoveryListCmd.Flags().String("urgency", "", "Filter by urgency")

	discoveryCmd.AddCommand(discoveryCreateCmd)
	discoveryCmd.AddCommand(discoveryListCmd)
}

// DiscoveryCmd returns the discovery command
func DiscoveryCmd() *cobra.Command {
	return discoveryCmd
}

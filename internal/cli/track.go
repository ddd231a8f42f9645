package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/conductor/internal/ports/primary"
	"github.com/example/conductor/internal/wire"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Manage tracks (units of implementation work)",
	Long:  "Create, list, start, complete, and manage tracks in the dependency graph",
}

var trackCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new track",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		title := strings.Join(args, " ")
		description, _ := cmd.Flags().GetString("description")
		complexity, _ := cmd.Flags().GetString("complexity")
		deps, _ := cmd.Flags().GetStringSlice("depends-on")
		owned, _ := cmd.Flags().GetStringSlice("owns")
		consumed, _ := cmd.Flags().GetStringSlice("consumes")
		testCommand, _ := cmd.Flags().GetString("test-command")
		testTimeout, _ := cmd.Flags().GetInt("test-timeout")

		resp, err := wire.TrackService().CreateTrack(ctx, primary.CreateTrackRequest{
			Title:              title,
			Description:        description,
			Complexity:         complexity,
			Dependencies:       deps,
			InterfacesOwned:    owned,
			InterfacesConsumed: consumed,
			TestCommand:        testCommand,
			TestTimeoutSec:     testTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create track: %w", err)
		}

		fmt.Printf("✓ Created track %s: %s\n", resp.TrackID, resp.Track.Title)
		if len(resp.Track.Dependencies) > 0 {
			fmt.Printf("  Depends on: %s\n", strings.Join(resp.Track.Dependencies, ", "))
		}
		fmt.Println("  Run `conductor graph schedule` to assign waves.")
		return nil
	},
}

var trackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		status, _ := cmd.Flags().GetString("status")
		waveNum, _ := cmd.Flags().GetInt("wave")

		tracks, err := wire.TrackService().ListTracks(ctx, primary.TrackFilters{
			Status: status,
			Wave:   waveNum,
		})
		if err != nil {
			return fmt.Errorf("failed to list tracks: %w", err)
		}

		if len(tracks) == 0 {
			fmt.Println("No tracks found.")
			return nil
		}

		fmt.Printf("Found %d track(s):\n\n", len(tracks))
		for _, t := range tracks {
			wave := "unscheduled"
			if t.Wave > 0 {
				wave = fmt.Sprintf("wave %d", t.Wave)
			}
			fmt.Printf("  %s %s [%s] (%s, %s) %s\n",
				statusIcon(t.Status), t.ID, t.Complexity, renderStatus(t.Status), wave, t.Title)
		}
		return nil
	},
}

var trackShowCmd = &cobra.Command{
	Use:   "show [track-id]",
	Short: "Show a track with its patches and override log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := wire.TrackService().GetTrack(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s: %s\n", t.ID, t.Title)
		fmt.Printf("  Status:     %s\n", renderStatus(t.Status))
		fmt.Printf("  Complexity: %s\n", t.Complexity)
		if t.Wave > 0 {
			fmt.Printf("  Wave:       %d\n", t.Wave)
		}
		if t.Description != "" {
			fmt.Printf("  Description: %s\n", t.Description)
		}
		if len(t.Dependencies) > 0 {
			fmt.Printf("  Depends on: %s\n", strings.Join(t.Dependencies, ", "))
		}
		if len(t.InterfacesOwned) > 0 {
			fmt.Printf("  Owns:       %s\n", strings.Join(t.InterfacesOwned, ", "))
		}
		if len(t.InterfacesConsumed) > 0 {
			fmt.Printf("  Consumes:   %s\n", strings.Join(t.InterfacesConsumed, ", "))
		}
		if t.TestCommand != "" {
			fmt.Printf("  Tests:      %s (timeout %ds)\n", t.TestCommand, t.TestTimeoutSec)
		}
		fmt.Printf("  Constraints: created at v%d, current v%d\n", t.ConstraintCreated, t.ConstraintCurrent)

		if len(t.Patches) > 0 {
			fmt.Println("\n  Patches:")
			for _, p := range t.Patches {
				extra := ""
				if len(p.DependsOn) > 0 {
					extra = fmt.Sprintf(" (after %s)", strings.Join(p.DependsOn, ", "))
				}
				fmt.Printf("    %s [%s] v%d blocks wave %d%s\n", p.ID, p.Status, p.ConstraintVersion, p.BlocksWave, extra)
			}
		}
		if len(t.Overrides) > 0 {
			fmt.Println("\n  Override log:")
			for _, o := range t.Overrides {
				fmt.Printf("    %s  %s overridden by %s: %s\n", o.CreatedAt, o.Check, o.Actor, o.Reason)
			}
		}
		return nil
	},
}

var trackStartCmd = &cobra.Command{
	Use:   "start [track-id]",
	Short: "Move a track to in_progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.TrackService().StartTrack(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Track %s started\n", args[0])
		return nil
	},
}

var trackCompleteCmd = &cobra.Command{
	Use:   "complete [track-id]",
	Short: "Move a track to completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.TrackService().CompleteTrack(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Track %s completed\n", args[0])
		return nil
	},
}

var trackPauseCmd = &cobra.Command{
	Use:   "pause [track-id]",
	Short: "Pause an in_progress track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.TrackService().PauseTrack(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Track %s paused\n", args[0])
		return nil
	},
}

var trackResumeCmd = &cobra.Command{
	Use:   "resume [track-id]",
	Short: "Resume a paused track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.TrackService().ResumeTrack(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Track %s resumed\n", args[0])
		return nil
	},
}

var trackPhasesCmd = &cobra.Command{
	Use:   "phases [track-id]",
	Short: "Record whether a track's plan phases are all complete",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		complete, _ := cmd.Flags().GetBool("complete")
		if err := wire.TrackService().SetPhasesComplete(context.Background(), args[0], complete); err != nil {
			return err
		}
		state := "incomplete"
		if complete {
			state = "complete"
		}
		fmt.Printf("✓ Track %s phases marked %s\n", args[0], state)
		return nil
	},
}

var patchCompleteCmd = &cobra.Command{
	Use:   "patch-complete [patch-id]",
	Short: "Mark a patch completed",
	Long:  "Mark a patch completed. Completing the last open patch returns a needs_patch track to completed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.TrackService().CompletePatch(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Patch %s completed\n", args[0])
		return nil
	},
}

func init() {
	trackCreateCmd.Flags().StringP("description", "d", "", "Track description")
	trackCreateCmd.Flags().StringP("complexity", "c", "M", "Complexity class (S, M, L, XL)")
	trackCreateCmd.Flags().StringSlice("depends-on", nil, "Track IDs this track depends on")
	trackCreateCmd.Flags().StringSlice("owns", nil, "Interfaces this track owns")
	trackCreateCmd.Flags().StringSlice("consumes", nil, "Interfaces this track consumes")
	trackCreateCmd.Flags().String("test-command", "", "Shell command for the quality gate")
	trackCreateCmd.Flags().Int("test-timeout", 300, "Test command timeout in seconds")

	trackListCmd.Flags().StringP("status", "s", "", "Filter by status")
	trackListCmd.Flags().IntP("wave", "w", 0, "Filter by wave")

	trackPhasesCmd.Flags().Bool("complete", true, "Whether all phases are complete")

	trackCmd.AddCommand(trackCreateCmd)
	trackCmd.AddCommand(trackListCmd)
	trackCmd.AddCommand(trackShowCmd)
	trackCmd.AddCommand(trackStartCmd)
	trackCmd.AddCommand(trackCompleteCmd)
	trackCmd.AddCommand(trackPauseCmd)
	trackCmd.AddCommand(trackResumeCmd)
	trackCmd.AddCommand(trackPhasesCmd)
	trackCmd.AddCommand(patchCompleteCmd)
}

// TrackCmd returns the track command
func TrackCmd() *cobra.Command {
	return trackCmd
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/conductor/internal/config"
	"github.com/example/conductor/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the conductor database and project config",
		Long:  `Initialize the conductor database at ~/.conductor/conductor.db and write .conductor/config.json in the current directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := db.GetDBPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}

			fmt.Printf("Initializing conductor database at %s\n", dbPath)

			if err := db.InitSchema(); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}

			fmt.Println("✓ Database initialized successfully")

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			project, _ := cmd.Flags().GetString("project")
			actor, _ := cmd.Flags().GetString("actor")

			if config.ConfigExists(cwd) {
				fmt.Println("  .conductor/config.json already exists, leaving it alone")
			} else {
				cfg := &config.Config{
					Version: "1",
					Project: project,
					Actor:   actor,
				}
				if err := config.SaveConfig(cwd, cfg); err != nil {
					return fmt.Errorf("failed to write config: %w", err)
				}
				fmt.Println("✓ Config written to .conductor/config.json")
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  conductor track create \"My first track\"")
			fmt.Println("  conductor graph schedule")

			return nil
		},
	}

	cmd.Flags().String("project", "", "Project name for .conductor/config.json")
	cmd.Flags().String("actor", "", "Default actor recorded on gate overrides")

	return cmd
}

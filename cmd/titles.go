/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/

// The titles command fetches page titles for snapshots that have none.
//
// Features:
//   - Fetch the title of a single snapshot by ID.
//   - Limit the number of snapshots processed in a batch.
//   - Customize the Chrome/Chromium executable path.
//   - Run Chrome headful to debug a page.
//   - Wait for a CSS selector before reading the title.
//
// Example usage:
//
//	linkindex titles --limit=10
//	linkindex titles --id=0b3c... --timeout=30s --wait-selector="h1" --headful
package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/seckatie/linkindex/internal/config"
	"github.com/seckatie/linkindex/internal/core"
)

// titlesCmd represents the titles command
var titlesCmd = &cobra.Command{
	Use:   "titles",
	Short: "Fetch page titles for snapshots without one",
	Args:  cobra.NoArgs,
	RunE:  runTitles,
}

func runTitles(cmd *cobra.Command, _ []string) error {
	warnSQLiteOnly(cmd.Name())
	database, err := initDB()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	id, err := cmd.Flags().GetString("id")
	if err != nil {
		return fmt.Errorf("failed to read --id: %w", err)
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to read --limit: %w", err)
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return fmt.Errorf("failed to read --timeout: %w", err)
	}
	waitSelector, err := cmd.Flags().GetString("wait-selector")
	if err != nil {
		return fmt.Errorf("failed to read --wait-selector: %w", err)
	}
	headful, err := cmd.Flags().GetBool("headful")
	if err != nil {
		return fmt.Errorf("failed to read --headful: %w", err)
	}

	chromePath := config.Load(viper.GetViper()).ChromePath
	if chromePath == "" && runtime.GOOS == "darwin" {
		// Best-effort default for macOS.
		chromePath = "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
	}

	res, err := core.RunTitles(commandContext(cmd), database, core.TitleRunOptions{
		ID:    id,
		Limit: limit,
		Options: core.TitleOptions{
			ChromePath:   chromePath,
			Headless:     !headful,
			Timeout:      timeout,
			WaitSelector: waitSelector,
		},
	})
	fmt.Fprintf(cmd.OutOrStdout(), "Attempted %d, succeeded %d, failed %d\n", res.Attempted, res.Succeeded, res.Failed)
	return err
}

func init() {
	rootCmd.AddCommand(titlesCmd)

	titlesCmd.Flags().String("id", "", "Fetch the title of a specific snapshot id")
	titlesCmd.Flags().Int("limit", 0, "Limit the number of snapshots to process (0 = all untitled)")
	titlesCmd.Flags().Duration("timeout", 40*time.Second, "Per-page timeout")
	titlesCmd.Flags().String("wait-selector", "", "Optional CSS selector to wait for (useful for JS-heavy pages)")
	titlesCmd.Flags().Bool("headful", false, "Run Chrome with a visible window (not headless)")
}

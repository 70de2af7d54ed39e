/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seckatie/linkindex/internal/core/index"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the links in the snapshot index",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json: %w", err)
	}

	ctx := commandContext(cmd)
	store, closeStore, err := openIndexStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	links := []index.Link{}
	for l, err := range index.ReadAll(ctx, store) {
		if err != nil {
			return err
		}
		links = append(links, l)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return renderJSON(out, map[string]any{"links": links})
	}

	rows := make([][]string, 0, len(links))
	for _, l := range links {
		rows = append(rows, []string{l.Timestamp, l.URL, l.Title, l.Tags})
	}
	return renderTable(out, []string{"Timestamp", "URL", "Title", "Tags"}, rows)
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Bool("json", false, "Print links as a JSON index")
}

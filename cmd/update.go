/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/

// The update command reconciles the snapshot index with an index file.
//
// Every URL in the file ends up with exactly one row holding the file's fields;
// rows for URLs no longer in the file are removed. A row whose URL changed but
// whose timestamp still appears in the file is replaced by the new record.
//
// Example usage:
//
//	linkindex update index.json
//	linkindex update bookmarks.html --dry-run
//	cat links.yaml | linkindex update - --format=yaml
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/seckatie/linkindex/internal/core/index"
	"github.com/seckatie/linkindex/internal/core/sources"
)

var updateCmd = &cobra.Command{
	Use:   "update <index file>",
	Short: "Reconcile the snapshot index with an index file",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to read --dry-run: %w", err)
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to read --format: %w", err)
	}

	links, err := readLinks(cmd.InOrStdin(), args[0], format)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	store, closeStore, err := openIndexStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	reconciler := index.NewReconciler(store)
	out := cmd.OutOrStdout()

	if dryRun {
		plan, err := reconciler.Plan(ctx, links)
		if err != nil {
			return err
		}
		if asJSON {
			return renderJSON(out, plan.Summary())
		}
		return renderPlan(out, plan)
	}

	summary, err := reconciler.Reconcile(ctx, links)
	if err != nil {
		return err
	}
	if asJSON {
		return renderJSON(out, summary)
	}
	return renderSummary(out, summary)
}

// readLinks loads links from path, or from in when path is "-".
func readLinks(in io.Reader, path, format string) ([]index.Link, error) {
	if path != "-" {
		if format == "" {
			return sources.Load(path)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		in = f
	}

	if format == "" {
		format = string(sources.FormatJSON)
	}
	parsed, err := sources.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return sources.Parse(in, parsed)
}

func renderSummary(w io.Writer, s index.Summary) error {
	return renderTable(w, []string{"Updated", "Unchanged", "Replaced", "Deleted", "Inserted"}, [][]string{{
		fmt.Sprint(s.Updated),
		fmt.Sprint(s.Unchanged),
		fmt.Sprint(s.Replaced),
		fmt.Sprint(s.Deleted),
		fmt.Sprint(s.Inserted),
	}})
}

func renderPlan(w io.Writer, p index.Plan) error {
	var rows [][]string
	for _, c := range p.Updates {
		rows = append(rows, []string{"update", c.Row.URL, c.Link.URL, c.Link.Timestamp})
	}
	for _, c := range p.Replaces {
		rows = append(rows, []string{"replace", c.Row.URL, c.Link.URL, c.Link.Timestamp})
	}
	for _, s := range p.Deletes {
		rows = append(rows, []string{"delete", s.URL, "", s.Timestamp})
	}
	for _, l := range p.Inserts {
		rows = append(rows, []string{"insert", "", l.URL, l.Timestamp})
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "Nothing to do, %d snapshot(s) unchanged.\n", len(p.Unchanged))
		return err
	}
	return renderTable(w, []string{"Action", "Current URL", "New URL", "Timestamp"}, rows)
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().Bool("dry-run", false, "Show what would change without writing")
	updateCmd.Flags().Bool("json", false, "Print the result as JSON")
	updateCmd.Flags().String("format", "", "Input format (json, yaml, html); defaults to the file extension, or json for stdin")
}

/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"encoding/json"
	"io"

	"github.com/olekukonko/tablewriter"
)

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(w)

	hdr := make([]any, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	table.Header(hdr...)

	for _, row := range rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Package output renders CLI results as aligned tables.
package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// PrintTable writes headers and rows as a formatted table to the writer.
func PrintTable(w io.Writer, headers []string, rows [][]string) {
	table := newTable(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(true)

	for _, row := range rows {
		table.Append(row)
	}

	table.Render()
}

// KeyValueTable prints aligned key-value pairs without a header line.
func KeyValueTable(w io.Writer, pairs [][2]string) {
	table := newTable(w)
	table.SetColumnSeparator(":")

	for _, pair := range pairs {
		table.Append([]string{pair[0], pair[1]})
	}

	table.Render()
}

// newTable applies the shared borderless style.
func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

package output

import (
	"encoding/json"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// TableRenderer is implemented by list results that can lay themselves
// out as rows under a header line.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes data as a borderless left-aligned table, kubectl
// style: upper-case headers, two-space column padding, no separators.
func PrintTable(w io.Writer, data TableRenderer) error {
	t := tablewriter.NewWriter(w)
	t.SetHeader(data.Headers())

	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(true)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetCenterSeparator("")
	t.SetColumnSeparator("")
	t.SetRowSeparator("")
	t.SetHeaderLine(false)
	t.SetBorder(false)
	t.SetTablePadding("  ")
	t.SetNoWhiteSpace(true)

	for _, row := range data.Rows() {
		t.Append(row)
	}
	t.Render()
	return nil
}

// PrintJSON writes data as indented JSON with a trailing newline.
func PrintJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintYAML writes data as YAML with two-space indentation.
func PrintYAML(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}

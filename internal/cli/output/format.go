// Package output renders command results as tables, JSON, or YAML, and
// prints status messages with optional ANSI color.
package output

import (
	"fmt"
	"strings"
)

// Format selects how a command renders its result.
type Format string

const (
	// FormatTable renders an aligned, human-readable table.
	FormatTable Format = "table"
	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"
	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat validates an --output flag value. The empty string selects
// the table format, and "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q, want table, json or yaml", s)
}

func (f Format) String() string {
	return string(f)
}

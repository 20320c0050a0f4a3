// Package cmdutil provides shared helpers for bpctl commands.
package cmdutil

import (
	"fmt"
	"io"
	"os"

	"github.com/blobpool/blobpool/internal/cli/output"
	"github.com/blobpool/blobpool/internal/cli/prompt"
	"github.com/blobpool/blobpool/pkg/apiclient"
)

// DefaultServerURL is used when neither the --server flag nor the
// BLOBPOOL_SERVER environment variable is set.
const DefaultServerURL = "http://localhost:8080"

// GlobalFlags carries the persistent flag values shared by every
// subcommand. The root command binds its flags straight into Flags.
type GlobalFlags struct {
	ServerURL string
	Output    string
	NoColor   bool
	Verbose   bool
}

var Flags = &GlobalFlags{}

// GetClient returns an API client for the configured server. The
// --server flag wins over the BLOBPOOL_SERVER environment variable,
// which wins over the localhost default.
func GetClient() *apiclient.Client {
	url := Flags.ServerURL
	if url == "" {
		url = os.Getenv("BLOBPOOL_SERVER")
	}
	if url == "" {
		url = DefaultServerURL
	}
	return apiclient.New(url)
}

// GetOutputFormatParsed parses the --output flag.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// IsColorDisabled reports whether --no-color was given.
func IsColorDisabled() bool {
	return Flags.NoColor
}

// IsVerbose reports whether --verbose was given.
func IsVerbose() bool {
	return Flags.Verbose
}

// PrintOutput renders data according to the --output flag. Table mode
// prints emptyMsg instead of an empty table when isEmpty is set; JSON
// and YAML always encode data so scripts get a stable shape.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, table output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	}

	if isEmpty {
		_, err := fmt.Fprintln(w, emptyMsg)
		return err
	}
	return output.PrintTable(w, table)
}

// PrintSuccess prints a green success line in table mode. JSON and
// YAML output stays machine-readable, so the message is suppressed.
func PrintSuccess(msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	output.NewPrinter(os.Stdout, !IsColorDisabled()).Success(msg)
}

// HandleAbort maps a Ctrl+C abort from an interactive prompt to a
// clean exit. Other errors pass through unchanged.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("\nAborted.")
		return nil
	}
	return err
}

// BoolToYesNo renders a boolean as "yes" or "no" for table cells.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// EmptyOr returns value, or fallback when value is empty. Table cells
// use it to show "-" for absent fields.
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/blobpool/blobpool/cmd/bpctl/cmdutil"
	"github.com/blobpool/blobpool/internal/bytesize"
	"github.com/blobpool/blobpool/internal/cli/output"
	"github.com/blobpool/blobpool/internal/cli/timeutil"
	"github.com/blobpool/blobpool/pkg/apiclient"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show health and stats of a server",
	Long: `Display the status of the connected blobpool server.

This command checks the server readiness endpoint and displays store
statistics, pool usage, and uptime information.

Examples:
  # Status of the server behind --server
  bpctl status

  # Output as JSON
  bpctl status -o json`,
	RunE: runStatus,
}

// ServerStatus is the status payload shaped for rendering.
type ServerStatus struct {
	Server      string `json:"server" yaml:"server"`
	Status      string `json:"status" yaml:"status"`
	Healthy     bool   `json:"healthy" yaml:"healthy"`
	StoreID     string `json:"store_id,omitempty" yaml:"store_id,omitempty"`
	Records     int    `json:"records" yaml:"records"`
	Blobs       int    `json:"blobs" yaml:"blobs"`
	SealedBlobs int    `json:"sealed_blobs" yaml:"sealed_blobs"`
	MaxBlobs    int    `json:"max_blobs" yaml:"max_blobs"`
	TotalBytes  uint64 `json:"total_bytes" yaml:"total_bytes"`
	Created     string `json:"created,omitempty" yaml:"created,omitempty"`
	Uptime      string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	status := ServerStatus{
		Server: client.BaseURL(),
		Status: "unreachable",
	}

	if _, err := client.Ready(); err != nil {
		status.Error = err.Error()
		if apiclient.IsUnavailable(err) {
			status.Status = "unhealthy"
		}
	} else {
		status.Status = "healthy"
		status.Healthy = true

		if stats, err := client.Status(); err == nil {
			status.StoreID = stats.StoreID
			status.Records = stats.Records
			status.Blobs = stats.Blobs
			status.SealedBlobs = stats.SealedBlobs
			status.MaxBlobs = stats.MaxBlobs
			status.TotalBytes = stats.TotalBytes
			status.Created = timeutil.FormatTime(stats.CreatedAt)
			status.Uptime = stats.Uptime
		} else {
			status.Error = err.Error()
		}
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}

	return nil
}

func printStatusTable(status ServerStatus) {
	const title = "Blobpool Server Status"
	fmt.Println()
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", len(title)))
	fmt.Println()

	row := func(label, format string, args ...any) {
		fmt.Printf("  %-11s "+format+"\n", label+":", args...)
	}

	row("Server", "%s", status.Server)
	switch {
	case status.Healthy:
		row("Status", "\033[32m● %s\033[0m", status.Status)
	case status.Status == "unreachable":
		row("Status", "\033[31m○ %s\033[0m", status.Status)
	default:
		row("Status", "\033[33m● %s\033[0m", status.Status)
	}

	if status.StoreID != "" {
		row("Store", "%s", status.StoreID)
		row("Records", "%d", status.Records)
		row("Blobs", "%d of %d (%d sealed)", status.Blobs, status.MaxBlobs, status.SealedBlobs)
		row("Size", "%s", bytesize.ByteSize(status.TotalBytes))
	}
	if status.Created != "" {
		row("Created", "%s", status.Created)
	}
	if status.Uptime != "" {
		row("Uptime", "%s", timeutil.FormatUptime(status.Uptime))
	}
	if status.Error != "" {
		row("Error", "%s", status.Error)
	}
	fmt.Println()
}

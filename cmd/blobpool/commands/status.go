package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/blobpool/blobpool/internal/bytesize"
	"github.com/blobpool/blobpool/internal/cli/output"
	"github.com/blobpool/blobpool/internal/cli/timeutil"
	"github.com/blobpool/blobpool/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	statusOutput  string
	statusPidFile string
	statusAPIPort int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the local server is up",
	Long: `Display the current status of the blobpool server.

This command checks the server health by calling the readiness endpoint
and displays status, uptime, and store information.

Examples:
  # Status of the local server
  blobpool status

  # Ask on a different admin port
  blobpool status --api-port 9080

  # Output as JSON
  blobpool status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/blobpool/blobpool.pid)")
	statusCmd.Flags().IntVar(&statusAPIPort, "api-port", 8080, "Admin API port to probe")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Render output as table, json or yaml")
}

// ServerStatus describes whether a local server process is up.
type ServerStatus struct {
	Running     bool   `json:"running" yaml:"running"`
	PID         int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Message     string `json:"message" yaml:"message"`
	Healthy     bool   `json:"healthy" yaml:"healthy"`
	StoreID     string `json:"store_id,omitempty" yaml:"store_id,omitempty"`
	Records     int    `json:"records" yaml:"records"`
	Blobs       int    `json:"blobs" yaml:"blobs"`
	SealedBlobs int    `json:"sealed_blobs" yaml:"sealed_blobs"`
	TotalBytes  uint64 `json:"total_bytes" yaml:"total_bytes"`
	Created     string `json:"created,omitempty" yaml:"created,omitempty"`
	Uptime      string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := ServerStatus{Message: "No running server found"}

	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}
	if pid, ok := runningPid(pidPath); ok {
		status.Running = true
		status.PID = pid
	}

	// The readiness probe works for both daemon and foreground mode,
	// so it is authoritative even without a PID file.
	client := apiclient.New(fmt.Sprintf("http://localhost:%d", statusAPIPort))

	if _, err := client.Ready(); err != nil {
		if apiclient.IsUnavailable(err) {
			status.Running = true
			status.Message = "Server is running but the store is not serving"
		} else if status.Running {
			// PID file says running but the API is unreachable
			status.Message = "Server process found but the health check failed"
		}
	} else {
		status.Running = true
		status.Healthy = true
		status.Message = "Server is up and serving"

		// Fetch store statistics for the detail fields
		if stats, err := client.Status(); err == nil {
			status.StoreID = stats.StoreID
			status.Records = stats.Records
			status.Blobs = stats.Blobs
			status.SealedBlobs = stats.SealedBlobs
			status.TotalBytes = stats.TotalBytes
			status.Created = timeutil.FormatTime(stats.CreatedAt)
			status.Uptime = stats.Uptime
		}
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

	switch {
	case !status.Running:
		row("Status", "\033[31m○ Stopped\033[0m")
	case status.Healthy:
		row("Status", "\033[32m● Running\033[0m")
	default:
		row("Status", "\033[33m● Running (unhealthy)\033[0m")
	}

	if status.Running {
		if status.PID != 0 {
			row("PID", "%d", status.PID)
		}
		if status.StoreID != "" {
			row("Store", "%s", status.StoreID)
			row("Records", "%d", status.Records)
			row("Blobs", "%d (%d sealed)", status.Blobs, status.SealedBlobs)
			row("Size", "%s", bytesize.ByteSize(status.TotalBytes))
		}
		if status.Created != "" {
			row("Created", "%s", status.Created)
		}
		if status.Uptime != "" {
			row("Uptime", "%s", timeutil.FormatUptime(status.Uptime))
		}
	}

	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}

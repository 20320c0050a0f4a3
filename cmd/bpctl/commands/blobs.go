package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/blobpool/blobpool/cmd/bpctl/cmdutil"
	"github.com/blobpool/blobpool/internal/bytesize"
	"github.com/spf13/cobra"
)

var blobsCmd = &cobra.Command{
	Use:   "blobs",
	Short: "List blob allocation state",
	Long: `List every blob in the pool with its allocation state.

Shows which blobs are leased for writing, how full each one is, and
which sealed blobs have already been archived to object storage.

Examples:
  # List blobs as table
  bpctl blobs

  # List as JSON
  bpctl blobs -o json

  # List as YAML
  bpctl blobs -o yaml`,
	RunE: runBlobs,
}

// blobRow holds one blob's allocation state for table display.
type blobRow struct {
	ID          int    `json:"id"`
	Locked      bool   `json:"locked"`
	WriteOffset uint64 `json:"write_offset"`
	Used        string `json:"used"`
	Sealed      bool   `json:"sealed"`
	Archived    bool   `json:"archived"`
}

// BlobList is a list of blobs for table rendering.
type BlobList []blobRow

// Headers implements TableRenderer.
func (bl BlobList) Headers() []string {
	return []string{"ID", "LOCKED", "SIZE", "USED", "SEALED", "ARCHIVED"}
}

// Rows implements TableRenderer.
func (bl BlobList) Rows() [][]string {
	rows := make([][]string, 0, len(bl))
	for _, b := range bl {
		rows = append(rows, []string{
			strconv.Itoa(b.ID),
			cmdutil.BoolToYesNo(b.Locked),
			bytesize.ByteSize(b.WriteOffset).String(),
			cmdutil.EmptyOr(b.Used, "-"),
			cmdutil.BoolToYesNo(b.Sealed),
			cmdutil.BoolToYesNo(b.Archived),
		})
	}
	return rows
}

func runBlobs(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	resp, err := client.Blobs()
	if err != nil {
		return fmt.Errorf("failed to list blobs: %w", err)
	}

	// Fetch the blob capacity so the table can show fill percentages.
	var maxBlobSize uint64
	if stats, err := client.Status(); err == nil {
		maxBlobSize = stats.MaxBlobSize
	}

	rows := make(BlobList, 0, len(resp.Blobs))
	for _, b := range resp.Blobs {
		used := ""
		if maxBlobSize > 0 {
			used = fmt.Sprintf("%.0f%%", float64(b.WriteOffset)/float64(maxBlobSize)*100)
		}
		rows = append(rows, blobRow{
			ID:          b.ID,
			Locked:      b.Locked,
			WriteOffset: b.WriteOffset,
			Used:        used,
			Sealed:      b.Sealed,
			Archived:    b.Archived,
		})
	}

	return cmdutil.PrintOutput(os.Stdout, rows, len(rows) == 0, "No blobs allocated.", rows)
}

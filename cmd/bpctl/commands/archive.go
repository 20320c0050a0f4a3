package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/blobpool/blobpool/cmd/bpctl/cmdutil"
	"github.com/blobpool/blobpool/internal/cli/output"
	"github.com/blobpool/blobpool/internal/cli/prompt"
	"github.com/blobpool/blobpool/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	archiveForce   bool
	archiveTimeout time.Duration
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive sealed blobs to object storage",
	Long: `Trigger an archive run on the blobpool server.

The server uploads every sealed blob that has not been archived yet to
the configured S3-compatible bucket and records an archive mark for each
upload. Blobs that already carry a mark are skipped, so re-running after
a partial failure only uploads what is missing.

The run is synchronous and can take minutes on large stores. Use
--timeout to extend the client-side wait.

Examples:
  # Archive with confirmation prompt
  bpctl archive

  # Archive without confirmation
  bpctl archive --force

  # Allow a longer run
  bpctl archive --timeout 30m`,
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().BoolVarP(&archiveForce, "force", "f", false, "Skip confirmation prompt")
	archiveCmd.Flags().DurationVar(&archiveTimeout, "timeout", 10*time.Minute, "Client-side timeout for the archive run")
}

func runArchive(cmd *cobra.Command, args []string) error {
	// Confirm before uploading
	confirmed, err := prompt.ConfirmWithForce(
		"Upload all sealed unarchived blobs to object storage?",
		archiveForce,
	)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	client := cmdutil.GetClient().WithTimeout(archiveTimeout)

	result, err := client.Archive()
	if err != nil {
		if apiclient.IsUnavailable(err) {
			return fmt.Errorf("archival is not configured on the server")
		}
		return fmt.Errorf("archive run failed: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, result)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, result)
	default:
		if len(result.Uploaded) == 0 {
			fmt.Printf("Nothing to archive (%d blobs already archived or still open)\n", result.Skipped)
			return nil
		}
		cmdutil.PrintSuccess(fmt.Sprintf("Archived %d blobs (%d skipped)", len(result.Uploaded), result.Skipped))
		if cmdutil.IsVerbose() {
			fmt.Printf("Uploaded blob IDs: %v\n", result.Uploaded)
		}
	}

	return nil
}

// Package commands implements the CLI commands for the bpctl client.
package commands

import (
	"github.com/blobpool/blobpool/cmd/bpctl/cmdutil"
	"github.com/spf13/cobra"
)

// Set from main before Execute runs; release builds override them
// through ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "bpctl",
	Short: "Blobpool Control - Remote management client",
	Long: `bpctl is the command-line client for managing blobpool servers remotely.

Use this tool to inspect the blob pool, watch allocation state, and trigger
archive runs through the blobpool REST API.

Use "bpctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Persistent flags bind straight into cmdutil.Flags, where every
	// subcommand reads them.
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cmdutil.Flags.ServerURL, "server", "", "Server URL (default: $BLOBPOOL_SERVER or http://localhost:8080)")
	pf.StringVarP(&cmdutil.Flags.Output, "output", "o", "table", "Render output as table, json or yaml")
	pf.BoolVar(&cmdutil.Flags.NoColor, "no-color", false, "Disable colored output")
	pf.BoolVarP(&cmdutil.Flags.Verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(
		statusCmd,
		blobsCmd,
		archiveCmd,
		versionCmd,
		completionCmd,
	)

	// The completion command below replaces cobra's generated one.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

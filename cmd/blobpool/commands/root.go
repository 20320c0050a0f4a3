// Package commands implements the CLI commands for blobpool server management.
package commands

import (
	"github.com/blobpool/blobpool/cmd/blobpool/commands/config"
	"github.com/spf13/cobra"
)

// Filled in by main from the ldflags values.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// cfgFile holds the --config flag shared by every subcommand.
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "blobpool",
	Short: "Blobpool - Blob allocation manager",
	Long: `Blobpool is an append-oriented object store built on a fixed pool of
large blob containers. Records are appended to pre-allocated blobs handed
out under exclusive leases, and sealed blobs can be archived to S3-compatible
object storage.

Use "blobpool [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/blobpool/config.yaml)")

	rootCmd.AddCommand(
		initCmd,
		startCmd,
		stopCmd,
		statusCmd,
		logsCmd,
		config.Cmd,
		versionCmd,
		completionCmd,
	)

	// The completion command below replaces cobra's generated one.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile exposes the --config flag value to the subcommands.
func GetConfigFile() string {
	return cfgFile
}

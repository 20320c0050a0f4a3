package commands

import (
	"fmt"

	"github.com/blobpool/blobpool/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write an annotated sample configuration file.

The file lands at $XDG_CONFIG_HOME/blobpool/config.yaml unless --config
gives another path. Existing files are left alone unless --force is set.

Examples:
  # Create the config in the default location
  blobpool init

  # Put it somewhere else
  blobpool init --config /etc/blobpool/config.yaml

  # Replace an existing file
  blobpool init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Replace the file if it already exists")
}

func runInit(cmd *cobra.Command, args []string) error {
	var (
		path = GetConfigFile()
		err  error
	)
	if path != "" {
		err = config.InitConfigToPath(path, initForce)
	} else {
		path, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit the configuration file and set store.path")
	fmt.Println("  2. Start the server with: blobpool start")
	fmt.Printf("  3. Or specify custom config: blobpool start --config %s\n", path)
	fmt.Println()
	fmt.Println("Security note:")
	fmt.Println("  If you enable archival, prefer environment variables over the config")
	fmt.Println("  file for the S3 credentials:")
	fmt.Println("    export BLOBPOOL_ARCHIVE_ACCESS_KEY_ID=...")
	fmt.Println("    export BLOBPOOL_ARCHIVE_SECRET_ACCESS_KEY=...")
	return nil
}

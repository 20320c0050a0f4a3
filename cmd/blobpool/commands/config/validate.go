package config

import (
	"fmt"

	"github.com/blobpool/blobpool/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a configuration file for problems",
	Long: `Validate the configuration file.

Checks for syntax errors, missing required fields, and invalid values,
and warns about settings that are legal but probably unintended.

Examples:
  # Check the default config
  blobpool config validate

  # Validate a particular file
  blobpool config validate --config /etc/blobpool/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// --config is a persistent flag on the root command.
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	path := configPath
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	fmt.Printf("%s: valid\n", path)

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		fmt.Printf("\n%d warning(s):\n", len(warnings))
		for _, w := range warnings {
			fmt.Println("  -", w)
		}
	}

	fmt.Println("\nEffective settings:")
	row := func(label string, value any) {
		fmt.Printf("  %-14s %v\n", label+":", value)
	}
	row("Store path", cfg.Store.Path)
	row("Max blob size", cfg.Store.MaxBlobSize.String())
	row("API port", cfg.API.Port)
	row("Log level", cfg.Logging.Level)
	return nil
}

// configWarnings flags settings that pass validation but usually mean
// the operator forgot something.
func configWarnings(cfg *config.Config) []string {
	var warnings []string
	if !cfg.Archive.Enabled {
		warnings = append(warnings, "Archival disabled - sealed blobs will accumulate on local disk")
	}
	if cfg.Archive.Enabled && cfg.Archive.AccessKeyID == "" {
		warnings = append(warnings, "Archive S3 credentials not configured - set BLOBPOOL_ARCHIVE_ACCESS_KEY_ID and BLOBPOOL_ARCHIVE_SECRET_ACCESS_KEY")
	}
	return warnings
}

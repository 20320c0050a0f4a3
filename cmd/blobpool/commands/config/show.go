package config

import (
	"os"

	"github.com/blobpool/blobpool/internal/cli/output"
	"github.com/blobpool/blobpool/pkg/config"
	"github.com/spf13/cobra"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration after defaults, the config file,
and environment overrides have all been applied.

Examples:
  # Print the effective config as YAML
  blobpool config show

  # Show as JSON
  blobpool config show --output json

  # Print a particular file
  blobpool config show --config /etc/blobpool/config.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Render output as yaml or json")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	// --config is a persistent flag on the root command.
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}
	if format == output.FormatJSON {
		return output.PrintJSON(os.Stdout, cfg)
	}
	return output.PrintYAML(os.Stdout, cfg)
}

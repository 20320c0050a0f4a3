// Package config holds the config subcommand tree: show, validate and
// the sample file generator.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command the subcommands hang off.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and maintain the configuration",
	Long: `Inspect and maintain blobpool configuration files.

A new configuration file is created with 'blobpool init'.

Subcommands:
  show      Print the effective configuration
  validate  Check a configuration file for problems
  edit      Open the configuration in $EDITOR
  schema    Emit the configuration JSON schema`,
}

func init() {
	Cmd.AddCommand(
		showCmd,
		validateCmd,
		editCmd,
		schemaCmd,
	)
}

package config

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/blobpool/blobpool/pkg/config"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the configuration in $EDITOR",
	Long: `Open the configuration file in your editor.

The editor comes from $EDITOR, then $VISUAL, then falls back to vi.

Examples:
  # Edit default config
  blobpool config edit

  # Edit a particular file
  blobpool config edit --config /etc/blobpool/config.yaml`,
	RunE: runConfigEdit,
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	// --config is a persistent flag on the root command.
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("configuration file %s does not exist\n\n"+
			"Generate it with:\n"+
			"  blobpool init --config %s",
			configPath, configPath)
	}

	editor := exec.Command(resolveEditor(), configPath)
	editor.Stdin = os.Stdin
	editor.Stdout = os.Stdout
	editor.Stderr = os.Stderr
	if err := editor.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}
	return nil
}

func resolveEditor() string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if editor := os.Getenv(env); editor != "" {
			return editor
		}
	}
	return "vi"
}

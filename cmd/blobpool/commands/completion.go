package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Emit a shell completion script",
	Long: `Generate a completion script for blobpool and print it to stdout.

Load it into the current shell:

  Bash:       source <(blobpool completion bash)
  Zsh:        source <(blobpool completion zsh)
  Fish:       blobpool completion fish | source
  PowerShell: blobpool completion powershell | Out-String | Invoke-Expression

To load completions in every new shell, write the script where your
shell looks for them, for example:

  Linux bash: blobpool completion bash > /etc/bash_completion.d/blobpool
  macOS bash: blobpool completion bash > $(brew --prefix)/etc/bash_completion.d/blobpool
  Zsh:        blobpool completion zsh > "${fpath[1]}/_blobpool"
  Fish:       blobpool completion fish > ~/.config/fish/completions/blobpool.fish`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:                  runCompletion,
}

func runCompletion(cmd *cobra.Command, args []string) error {
	root := cmd.Root()
	switch args[0] {
	case "bash":
		return root.GenBashCompletion(os.Stdout)
	case "zsh":
		return root.GenZshCompletion(os.Stdout)
	case "fish":
		return root.GenFishCompletion(os.Stdout, true)
	default:
		return root.GenPowerShellCompletionWithDesc(os.Stdout)
	}
}

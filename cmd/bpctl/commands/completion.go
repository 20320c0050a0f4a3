package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Emit a shell completion script",
	Long: `Generate a completion script for bpctl and print it to stdout.

Load it into the current shell:

  Bash:       source <(bpctl completion bash)
  Zsh:        source <(bpctl completion zsh)
  Fish:       bpctl completion fish | source
  PowerShell: bpctl completion powershell | Out-String | Invoke-Expression

To load completions in every new shell, write the script where your
shell looks for them, for example:

  Linux bash: bpctl completion bash > /etc/bash_completion.d/bpctl
  macOS bash: bpctl completion bash > $(brew --prefix)/etc/bash_completion.d/bpctl
  Zsh:        bpctl completion zsh > "${fpath[1]}/_bpctl"
  Fish:       bpctl completion fish > ~/.config/fish/completions/bpctl.fish`,
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

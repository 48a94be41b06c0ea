package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for ruleviz.

To load completions:

Bash:
  $ source <(ruleviz completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ ruleviz completion bash > /etc/bash_completion.d/ruleviz
  # macOS:
  $ ruleviz completion bash > $(brew --prefix)/etc/bash_completion.d/ruleviz

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ ruleviz completion zsh > "${fpath[1]}/_ruleviz"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ ruleviz completion fish | source

  # To load completions for each session, execute once:
  $ ruleviz completion fish > ~/.config/fish/completions/ruleviz.fish

PowerShell:
  PS> ruleviz completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> ruleviz completion powershell > ruleviz.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return genCompletion(cmd.Root(), args[0], cmd.OutOrStdout())
		},
	}

	return cmd
}

// genCompletion writes the completion script for shell.
func genCompletion(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return nil
}

package commands

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/systmms/credprune/internal/config"
)

// completionShells maps each supported shell to its cobra generator.
var completionShells = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":  func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish": func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
}

// NewCompletionCommand prints a completion script for credprune's flags and
// subcommands.
func NewCompletionCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "completion bash|zsh|fish",
		Short: "Print a shell completion script",
		Long: `Print a completion script covering the revoke, check and list flags.

  credprune completion bash > /etc/bash_completion.d/credprune
  credprune completion zsh > "${fpath[1]}/_credprune"
  credprune completion fish > ~/.config/fish/completions/credprune.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionShells[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}

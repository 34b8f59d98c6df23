package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Print the script completing the e2e commands in a shell",
	Long: `
e2e completion prints on the standard output a script that teaches the shell
the e2e commands and flags. The supported shells are bash, zsh and fish.

Evaluate it in the current session, or save it where the shell looks for
completion scripts. With bash, the bash-completion package must be installed.
With zsh, compinit must be enabled in ~/.zshrc.
`,
	Example: `$ source <(e2e completion bash)
$ e2e completion zsh > "${fpath[1]}/_e2e"
$ e2e completion fish > ~/.config/fish/completions/e2e.fish`,
	ValidArgs: []string{"bash", "zsh", "fish"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return cmd.Usage()
		}
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return RootCmd.GenBashCompletionV2(out, true)
		case "zsh":
			return RootCmd.GenZshCompletion(out)
		case "fish":
			return RootCmd.GenFishCompletion(out, true)
		}
		return fmt.Errorf("%w: unsupported shell %q", ErrUsage, args[0])
	},
}

func init() {
	RootCmd.AddCommand(completionCmd)
}

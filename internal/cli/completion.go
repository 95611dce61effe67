package cli

import (
	"os"

	"github.com/spf13/cobra"

	certerrors "github.com/princespaghetti/certfetch/internal/errors"
)

// completionCmd represents the completion command.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for bash or zsh.

To load completions:

Bash:

  $ source <(certfetch completion bash)

Zsh:

  $ certfetch completion zsh > "${fpath[1]}/_certfetch"

Example usage:
  certfetch completion bash > /usr/local/etc/bash_completion.d/certfetch
  certfetch completion zsh > ~/.zsh/completions/_certfetch`,
	ValidArgs: []string{"bash", "zsh"},
	Args:      cobra.ExactValidArgs(1),
	RunE:      runCompletion,
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	shell := args[0]

	switch shell {
	case "bash":
		if err := cmd.Root().GenBashCompletion(os.Stdout); err != nil {
			Failure("Failed to generate bash completion: %v", err)
			os.Exit(certerrors.ExitGeneralError)
		}
	case "zsh":
		if err := cmd.Root().GenZshCompletion(os.Stdout); err != nil {
			Failure("Failed to generate zsh completion: %v", err)
			os.Exit(certerrors.ExitGeneralError)
		}
	default:
		Failure("Unsupported shell: %s. Supported shells: bash, zsh", shell)
		os.Exit(certerrors.ExitConfigError)
	}

	return nil
}

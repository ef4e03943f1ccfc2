package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petereon/fix-stl/internal/operations"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// NewCompletionCmd generates shell completion scripts for rootCmd.
func NewCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [" + strings.Join(completionShells, "|") + "]",
		Short: "Generate completion script",
		Long: `Print a completion script for your shell.

  $ source <(fixstl completion bash)
  $ fixstl completion zsh > "${fpath[1]}/_fixstl"
  $ fixstl completion fish | source
  PS> fixstl completion powershell | Out-String | Invoke-Expression

Mesh arguments complete to .stl and .off files; 'batch' completes directories.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletionV2(out, true)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell: %s", args[0])
		},
	}
}

// completeMesh completes a single mesh argument.
func completeMesh(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	exts := make([]string, 0, len(operations.DefaultExtensions))
	for _, ext := range operations.DefaultExtensions {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	return exts, cobra.ShellCompDirectiveFilterFileExt
}

// completeDir completes a single directory argument.
func completeDir(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveFilterDirs
}

func completeFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"text\tcolored terminal report",
		"json\tmachine readable",
		"markdown\tfor issues and docs",
	}, cobra.ShellCompDirectiveNoFileComp
}

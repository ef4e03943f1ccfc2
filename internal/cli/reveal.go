package cli

import (
	"github.com/spf13/cobra"
)

func newRevealCmd(st *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "reveal <file>",
		Short: "Show a file in the system file manager",
		Long: `Open the platform file manager at a file.

macOS selects the file in Finder and Windows selects it in Explorer.
Linux opens the containing directory with xdg-open.`,
		Example:           `  fixstl reveal part_fixed.stl`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeMesh,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.deps.Reveal(cmd.Context(), args[0])
		},
	}
}

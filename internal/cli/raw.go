package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petereon/fix-stl/internal/desktop"
)

func newRawCmd(st *runtimeState) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "raw <file>",
		Short: "Print the raw bytes of a mesh file",
		Long: `Read a file and write its bytes unchanged, for previews and piping.

The file is not parsed or validated.`,
		Example: `  fixstl raw part_fixed.stl > preview.stl
  fixstl raw part_fixed.stl --out /tmp/copy.stl`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeMesh,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := desktop.ReadRawFile(args[0])
			if err != nil {
				return err
			}

			if out != "" {
				if err := os.WriteFile(out, data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
				return nil
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the bytes to a file instead of stdout")

	return cmd
}

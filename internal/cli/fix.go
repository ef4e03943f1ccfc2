package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/petereon/fix-stl/internal/meshfix"
	"github.com/petereon/fix-stl/internal/operations"
)

type fixFlags struct {
	output      string
	join        bool
	off         bool
	skipIfFixed bool
}

// addOptionFlags registers the repair option flags shared by fix, batch and watch.
func addOptionFlags(cmd *cobra.Command, flags *fixFlags) {
	cmd.Flags().BoolVar(&flags.join, "join", false, "Join multiple components into one manifold")
	cmd.Flags().BoolVar(&flags.off, "off", false, "Write OFF instead of STL")
	cmd.Flags().BoolVar(&flags.skipIfFixed, "skip-if-fixed", false, "Let MeshFix skip meshes that need no repair")
}

// partialOptions returns only the options set on the command line so that
// everything else keeps its default.
func partialOptions(cmd *cobra.Command, flags *fixFlags) *meshfix.PartialOptions {
	p := &meshfix.PartialOptions{}
	set := false

	if cmd.Flags().Changed("join") {
		p.JoinMultipleComponents = meshfix.Bool(flags.join)
		set = true
	}
	if cmd.Flags().Changed("off") {
		p.STLOutput = meshfix.Bool(!flags.off)
		set = true
	}
	if cmd.Flags().Changed("skip-if-fixed") {
		p.SkipIfFixed = meshfix.Bool(flags.skipIfFixed)
		set = true
	}

	if !set {
		return nil
	}
	return p
}

func newFixCmd(st *runtimeState) *cobra.Command {
	flags := &fixFlags{}

	cmd := &cobra.Command{
		Use:   "fix <input>",
		Short: "Repair a single STL or OFF mesh",
		Long: `Repair a mesh with MeshFix.

Without --output the result is written next to the input as
<name>_fixed.stl (or <name>_fixed.off with --off). MeshFix never
overwrites an existing file.`,
		Example: `  # Repair next to the input
  fixstl fix part.stl

  # Repair to an explicit path
  fixstl fix part.stl --output /tmp/part_clean.stl

  # Join components and write OFF, reporting as JSON
  fixstl fix part.stl --join --off --format json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeMesh,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := operations.Request{
				InputPath: args[0],
				Options:   partialOptions(cmd, flags),
			}
			if cmd.Flags().Changed("output") {
				out := flags.output
				req.OutputPath = &out
			}
			return runFix(cmd.Context(), st, req, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output path for the repaired mesh")
	addOptionFlags(cmd, flags)

	return cmd
}

func runFix(ctx context.Context, st *runtimeState, req operations.Request, out io.Writer) error {
	opts, err := NewReportOptions(st.flags)
	if err != nil {
		return fmt.Errorf("invalid report options: %w", err)
	}
	opts.Writer = out

	op, err := st.repairOperation()
	if err != nil {
		return err
	}

	resp, err := op.Execute(ctx, req)
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}

	if err := WriteRepairReport(req.InputPath, resp, opts); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if !resp.Success {
		return ErrRepairFailed
	}

	return nil
}

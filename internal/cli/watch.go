package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petereon/fix-stl/internal/operations"
	"github.com/petereon/fix-stl/internal/watch"
)

func newWatchCmd(st *runtimeState) *cobra.Command {
	flags := &fixFlags{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <input>",
		Short: "Repair a mesh again whenever it changes",
		Long: `Repair a mesh once, then again every time the input file changes.

Useful next to a CAD exporter. Before each rerun the output written by
the previous run of this session is removed, since MeshFix refuses to
overwrite. Files the session did not write are left alone.`,
		Example: `  fixstl watch part.stl
  fixstl watch part.stl --off --debounce 1s`,
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
			return runWatch(cmd, st, req, debounce)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output path for the repaired mesh")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period before a change triggers a repair")
	addOptionFlags(cmd, flags)

	return cmd
}

func runWatch(cmd *cobra.Command, st *runtimeState, req operations.Request, debounce time.Duration) error {
	ctx := cmd.Context()

	opts, err := NewReportOptions(st.flags)
	if err != nil {
		return fmt.Errorf("invalid report options: %w", err)
	}
	opts.Writer = cmd.OutOrStdout()

	op, err := st.repairOperation()
	if err != nil {
		return err
	}

	fw, err := watch.NewFileWatcher(debounce, st.logger)
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Watch(req.InputPath); err != nil {
		return err
	}

	session := watch.NewSession(op, req, st.logger)
	repair := func() {
		resp, err := session.Run(ctx)
		if err != nil {
			st.logger.Warn("repair failed", zap.Error(err))
			cmd.PrintErrln(err)
			return
		}
		if err := WriteRepairReport(req.InputPath, resp, opts); err != nil {
			cmd.PrintErrln(err)
		}
	}

	repair()
	cmd.PrintErrf("Watching %s (Ctrl+C to stop)\n", req.InputPath)

	err = fw.Run(ctx, func(string) { repair() })
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

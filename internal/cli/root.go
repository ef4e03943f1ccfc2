package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petereon/fix-stl/internal/operations"
	"github.com/petereon/fix-stl/internal/version"
)

// ErrRepairFailed is returned when a repair ran but not every mesh was
// fixed. The report has already been written, so it is not printed again.
var ErrRepairFailed = errors.New("repair failed")

// RootFlags contains global flags shared across all commands
type RootFlags struct {
	Format  string
	Report  string
	Verbose bool
	Color   bool
	Config  string
	Library string
}

// NewRootCmd creates the root command for the CLI
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd(DefaultDeps())
	return cmd
}

func newRootCmd(deps Deps) (*cobra.Command, *runtimeState) {
	flags := &RootFlags{}
	st := newRuntimeState(deps, flags)

	cmd := &cobra.Command{
		Use:     "fixstl",
		Short:   "Repair STL and OFF meshes with MeshFix",
		Version: version.String(),
		Long: `fixstl - MeshFix mesh repair

Repair triangle meshes (STL, OFF) with the MeshFix native library.

  - Run without arguments to launch the interactive TUI.
  - Run with a file or directory path to quick-repair (e.g. 'fixstl part.stl').
  - Use subcommands ('fix', 'batch', 'watch', 'serve') for specific operations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Interactive TUI mode
  fixstl

  # Repair a single mesh next to the input (part_fixed.stl)
  fixstl fix part.stl

  # Repair to OFF, joining disconnected components
  fixstl fix part.stl --off --join

  # Repair every mesh in a directory
  fixstl batch ./models --format json --report results.json

  # Serve the command surface over HTTP
  fixstl serve --listen 127.0.0.1:8765`,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			return st.init()
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.Format, "format", "f", "text", "Output format: text, json, markdown")
	cmd.PersistentFlags().StringVar(&flags.Report, "report", "", "Write report to file instead of stdout")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVar(&flags.Color, "color", true, "Enable colorized output")
	cmd.PersistentFlags().StringVar(&flags.Config, "config", "", "Config file (default $XDG_CONFIG_HOME/fixstl/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.Library, "library", "", "Path to the MeshFix dynamic library")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormat)

	cmd.Args = cobra.MaximumNArgs(1)
	cmd.RunE = func(c *cobra.Command, args []string) error {
		if len(args) == 0 {
			return st.runTUI()
		}

		target := args[0]
		info, err := os.Stat(target)
		if err != nil {
			return fmt.Errorf("unknown command or file: %q\n\nRun 'fixstl --help' for usage", target)
		}

		if info.IsDir() {
			return runBatch(c.Context(), st, target, defaultBatchFlags(st), nil, c.OutOrStdout())
		}
		return runFix(c.Context(), st, operations.Request{InputPath: target}, c.OutOrStdout())
	}

	cmd.AddCommand(newFixCmd(st))
	cmd.AddCommand(newBatchCmd(st))
	cmd.AddCommand(newRawCmd(st))
	cmd.AddCommand(newRevealCmd(st))
	cmd.AddCommand(newWatchCmd(st))
	cmd.AddCommand(newServeCmd(st))
	cmd.AddCommand(NewCompletionCmd(cmd))

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	return cmd, st
}

// Execute runs the CLI command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, DefaultDeps(), os.Args[1:], os.Stderr)
}

// execute runs one command line and releases the logger and native library
// before returning, whatever the outcome.
func execute(ctx context.Context, deps Deps, args []string, stderr io.Writer) error {
	cmd, st := newRootCmd(deps)
	defer st.close()
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrRepairFailed) {
			st.logger.Debug("command failed", zap.Error(err))
			fmt.Fprintln(stderr, err)
		}
		return err
	}
	return nil
}

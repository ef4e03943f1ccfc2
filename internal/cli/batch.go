package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/petereon/fix-stl/internal/meshfix"
	"github.com/petereon/fix-stl/internal/operations"
)

type batchFlags struct {
	jobs            int
	recursive       bool
	maxDepth        int
	extensions      []string
	ignore          []string
	progress        string
	summaryOnly     bool
	outputDir       string
	includeRepaired bool
}

func defaultBatchFlags(st *runtimeState) *batchFlags {
	return &batchFlags{
		jobs:      int(st.cfg.NativeConcurrency),
		recursive: true,
		maxDepth:  -1,
		progress:  "auto",
	}
}

func newBatchCmd(st *runtimeState) *cobra.Command {
	flags := &batchFlags{}
	opts := &fixFlags{}

	cmd := &cobra.Command{
		Use:   "batch <directory>",
		Short: "Repair every STL and OFF mesh in a directory",
		Long: `Repair all meshes in a directory.

Files are handed to a worker pool. Native repairs are still serialized
unless native_concurrency allows more, so --jobs above that limit only
overlaps file discovery and reporting. Outputs from earlier runs
(*_fixed.*) are skipped unless --include-repaired is set.`,
		Example: `  # Repair everything below ./models
  fixstl batch ./models

  # Write OFF outputs into a separate directory
  fixstl batch ./models --off --output-dir ./repaired

  # Only the top level, JSON summary
  fixstl batch ./models --recursive=false --summary-only --format json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDir,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("jobs") {
				flags.jobs = int(st.cfg.NativeConcurrency)
			}
			return runBatch(cmd.Context(), st, args[0], flags, partialOptions(cmd, opts), cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 1, "Number of concurrent workers (default: native_concurrency)")
	cmd.Flags().BoolVarP(&flags.recursive, "recursive", "r", true, "Process subdirectories recursively")
	cmd.Flags().IntVar(&flags.maxDepth, "max-depth", -1, "Maximum directory depth (-1 = unlimited)")
	cmd.Flags().StringSliceVar(&flags.extensions, "ext", nil, "File extensions to include (default: .stl, .off)")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "Glob patterns to ignore")
	cmd.Flags().StringVar(&flags.progress, "progress", "auto", "Progress output mode (auto, simple, none)")
	cmd.Flags().BoolVar(&flags.summaryOnly, "summary-only", false, "Only print summary output")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Write repaired meshes here instead of next to each input")
	cmd.Flags().BoolVar(&flags.includeRepaired, "include-repaired", false, "Also repair *_fixed.* files from earlier runs")
	addOptionFlags(cmd, opts)

	return cmd
}

func runBatch(ctx context.Context, st *runtimeState, dir string, flags *batchFlags, options *meshfix.PartialOptions, out io.Writer) error {
	if flags.jobs <= 0 {
		flags.jobs = 1
	}

	opts, err := NewReportOptions(st.flags)
	if err != nil {
		return fmt.Errorf("invalid report options: %w", err)
	}
	opts.Writer = out
	opts.SummaryOnly = flags.summaryOnly

	files, err := operations.FindFiles(dir, operations.FindFilesOptions{
		Recursive:       flags.recursive,
		MaxDepth:        flags.maxDepth,
		Extensions:      flags.extensions,
		Ignore:          flags.ignore,
		IncludeRepaired: flags.includeRepaired,
	})
	if err != nil {
		return fmt.Errorf("failed to find files: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("no matching files found in %s", dir)
	}

	if flags.outputDir != "" {
		if err := os.MkdirAll(flags.outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	op, err := st.repairOperation()
	if err != nil {
		return err
	}

	config := operations.DefaultBatchConfig()
	config.NumWorkers = flags.jobs
	config.Options = options
	config.OutputDir = flags.outputDir
	processor := operations.NewBatchProcessor(ctx, op, config)

	progressDone := startProgress(processor, len(files), flags.progress, st.flags.Color)

	start := time.Now()
	results := processor.Execute(files)
	duration := time.Since(start)
	<-progressDone

	batchResult := operations.AggregateResults(results, duration)

	if err := WriteBatchRepairReport(&batchResult, opts); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if !batchResult.OK() {
		return fmt.Errorf("%w: %d of %d meshes not repaired", ErrRepairFailed, len(batchResult.Failed)+len(batchResult.Errored), batchResult.Total)
	}

	return nil
}

// startProgress drains the processor's progress channel into a progress bar
// or periodic status lines. The returned channel closes once the processor
// has closed its progress channel and the bar is finished.
func startProgress(processor *operations.BatchProcessor, total int, mode string, colorEnabled bool) <-chan struct{} {
	done := make(chan struct{})
	updates := processor.ProgressChannel()

	switch {
	case mode == "none":
		go func() {
			defer close(done)
			for range updates {
			}
		}()

	case mode == "simple" || (mode == "auto" && !isTerminal()):
		go func() {
			defer close(done)
			last := time.Time{}
			final := operations.ProgressUpdate{Total: total}
			for update := range updates {
				final = update
				if time.Since(last) >= 2*time.Second {
					fmt.Fprintf(os.Stderr, "Progress: %d/%d files completed...\n", update.Completed, update.Total)
					last = time.Now()
				}
			}
			fmt.Fprintf(os.Stderr, "Progress: %d/%d files completed\n", final.Completed, total)
		}()

	default:
		bar := progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Repairing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionEnableColorCodes(colorEnabled),
		)
		go func() {
			defer close(done)
			for update := range updates {
				_ = bar.Set(update.Completed)
			}
			_ = bar.Finish()
		}()
	}

	return done
}

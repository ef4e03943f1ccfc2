package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/petereon/fix-stl/internal/operations"
)

// ReportOptions contains options for report generation
type ReportOptions struct {
	Format       OutputFormat
	Formatter    Formatter
	ReportPath   string
	Writer       io.Writer
	ColorEnabled bool
	Verbose      bool
	SummaryOnly  bool
}

// NewReportOptions creates report options from flags
func NewReportOptions(flags *RootFlags) (*ReportOptions, error) {
	format, err := ParseFormat(flags.Format)
	if err != nil {
		return nil, err
	}

	// Disable color for non-terminal output or if explicitly disabled
	colorEnabled := flags.Color
	if flags.Report != "" || format != FormatText {
		colorEnabled = false
	}

	return &ReportOptions{
		Format:       format,
		Formatter:    NewFormatter(format, colorEnabled),
		ReportPath:   flags.Report,
		Writer:       os.Stdout,
		ColorEnabled: colorEnabled,
		Verbose:      flags.Verbose,
	}, nil
}

// WriteRepairReport writes a formatted single-file repair response
func WriteRepairReport(input string, resp *operations.Response, opts *ReportOptions) error {
	if resp == nil {
		return fmt.Errorf("no repair response to write")
	}
	return opts.write(opts.Formatter.FormatRepair(input, resp))
}

// WriteBatchRepairReport writes a formatted batch repair result
func WriteBatchRepairReport(result *operations.BatchResult, opts *ReportOptions) error {
	if result == nil {
		return fmt.Errorf("no batch result to write")
	}
	return opts.write(opts.Formatter.FormatBatchRepair(result, opts.SummaryOnly))
}

// write sends content to the report file, or to Writer.
func (o *ReportOptions) write(content string) error {
	if o.ReportPath != "" {
		return os.WriteFile(o.ReportPath, []byte(content), 0644)
	}

	w := o.Writer
	if w == nil {
		w = os.Stdout
	}
	return WriteOutput(w, content)
}

package operations

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/petereon/fix-stl/internal/meshfix"
)

// Request is one fix_mesh_file invocation as received from a front end.
type Request struct {
	InputPath  string                  `json:"input_path"`
	OutputPath *string                 `json:"output_path,omitempty"`
	Options    *meshfix.PartialOptions `json:"options,omitempty"`
}

// Response is the uniform result envelope for every domain outcome.
// OutputPath is set only when Success is true.
type Response struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	OutputPath *string `json:"output_path"`
}

// NewResponse translates a native outcome into a Response.
func NewResponse(outcome meshfix.Outcome, outputPath string) *Response {
	resp := &Response{
		Success: outcome.Success(),
		Message: outcome.Message(),
	}
	if resp.Success {
		resp.OutputPath = &outputPath
	}
	return resp
}

// MissingInputResponse is returned when the input file does not exist.
func MissingInputResponse(inputPath string) *Response {
	return &Response{
		Success: false,
		Message: fmt.Sprintf("Input file does not exist: %s", inputPath),
	}
}

// StatFunc reports file information; os.Stat in production.
type StatFunc func(name string) (os.FileInfo, error)

// RepairOperation handles mesh repair jobs
type RepairOperation struct {
	fixer  meshfix.Fixer
	stat   StatFunc
	logger *zap.Logger
}

// NewRepairOperation creates a repair operation that delegates to fixer
func NewRepairOperation(fixer meshfix.Fixer) *RepairOperation {
	return &RepairOperation{
		fixer:  fixer,
		stat:   os.Stat,
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger used for job diagnostics.
func (r *RepairOperation) WithLogger(logger *zap.Logger) *RepairOperation {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithStat replaces the file existence check.
func (r *RepairOperation) WithStat(stat StatFunc) *RepairOperation {
	if stat != nil {
		r.stat = stat
	}
	return r
}

// Execute runs one repair job in a single pass:
// validate input, normalize options, resolve output, call native, translate.
//
// A missing input file is a domain outcome and comes back as a Response.
// Path derivation and path encoding failures are returned as errors; the
// native routine is never reached in those cases.
func (r *RepairOperation) Execute(ctx context.Context, req Request) (*Response, error) {
	log := r.logger.With(
		zap.String("job_id", uuid.NewString()),
		zap.String("input", req.InputPath),
	)

	if !r.inputExists(req.InputPath) {
		log.Info("input file does not exist")
		return MissingInputResponse(req.InputPath), nil
	}

	opts := meshfix.NormalizeOptions(req.Options)

	outputPath, err := ResolveOutputPath(req.InputPath, req.OutputPath, opts)
	if err != nil {
		log.Warn("cannot derive output path", zap.Error(err))
		return nil, err
	}

	log.Debug("starting native repair",
		zap.String("output", outputPath),
		zap.Bool("join_multiple_components", opts.JoinMultipleComponents),
		zap.Bool("stl_output", opts.STLOutput),
		zap.Bool("skip_if_fixed", opts.SkipIfFixed),
	)

	start := time.Now()
	outcome, err := r.fixer.Fix(ctx, req.InputPath, &outputPath, opts)
	if err != nil {
		log.Warn("native repair not attempted", zap.Error(err))
		return nil, err
	}

	log.Info("native repair finished",
		zap.String("outcome", outcome.Kind.String()),
		zap.Int("code", outcome.Code),
		zap.Duration("elapsed", time.Since(start)),
	)

	return NewResponse(outcome, outputPath), nil
}

func (r *RepairOperation) inputExists(path string) bool {
	info, err := r.stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

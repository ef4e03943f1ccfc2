package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/petereon/fix-stl/internal/operations"
)

// Session repeats one repair request. The native routine refuses to
// overwrite, so the output written by the previous run of this session is
// removed first. Files the session did not write are never touched.
type Session struct {
	op       *operations.RepairOperation
	req      operations.Request
	logger   *zap.Logger
	produced string
}

// NewSession creates a session for req.
func NewSession(op *operations.RepairOperation, req operations.Request, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{op: op, req: req, logger: logger}
}

// Run executes the request once.
func (s *Session) Run(ctx context.Context) (*operations.Response, error) {
	if s.produced != "" {
		if err := os.Remove(s.produced); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		s.logger.Debug("removed previous output", zap.String("output", s.produced))
		s.produced = ""
	}

	resp, err := s.op.Execute(ctx, s.req)
	if err != nil {
		return nil, err
	}
	if resp.Success && resp.OutputPath != nil {
		s.produced = *resp.OutputPath
	}
	return resp, nil
}

// Produced returns the output written by the last successful run, if any.
func (s *Session) Produced() string {
	return s.produced
}

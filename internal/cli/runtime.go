package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/petereon/fix-stl/internal/config"
	"github.com/petereon/fix-stl/internal/desktop"
	"github.com/petereon/fix-stl/internal/logging"
	"github.com/petereon/fix-stl/internal/meshfix"
	"github.com/petereon/fix-stl/internal/operations"
	"github.com/petereon/fix-stl/internal/tui"
)

// Deps are the process-level collaborators of the CLI.
type Deps struct {
	// OpenFixer loads the native library at path.
	OpenFixer func(path string) (meshfix.Fixer, io.Closer, error)
	Reveal    func(ctx context.Context, path string) error
	RunTUI    func(svc tui.Services) error
}

// DefaultDeps wires the real MeshFix library, file manager and TUI.
func DefaultDeps() Deps {
	return Deps{
		OpenFixer: func(path string) (meshfix.Fixer, io.Closer, error) {
			lib, err := meshfix.Open(path)
			if err != nil {
				return nil, nil, err
			}
			return lib, lib, nil
		},
		Reveal: desktop.RevealInFileManager,
		RunTUI: tui.Run,
	}
}

// runtimeState holds what PersistentPreRunE resolved for the running command.
// The native library is opened on first use only, so commands that never
// repair work without it.
type runtimeState struct {
	deps   Deps
	flags  *RootFlags
	cfg    *config.Config
	logger *zap.Logger

	gate   *meshfix.Gate
	closer io.Closer
}

func newRuntimeState(deps Deps, flags *RootFlags) *runtimeState {
	return &runtimeState{
		deps:   deps,
		flags:  flags,
		cfg:    config.Default(),
		logger: zap.NewNop(),
	}
}

func (s *runtimeState) init() error {
	cfg, err := config.Load(s.flags.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if s.flags.Library != "" {
		cfg.LibraryPath = s.flags.Library
	}
	s.cfg = cfg

	logger, err := logging.New(logging.Config{
		Level:   cfg.LogLevel,
		Verbose: s.flags.Verbose,
		Console: isTerminal(),
	})
	if err != nil {
		return err
	}
	s.logger = logger
	return nil
}

func (s *runtimeState) libraryPath() string {
	if s.cfg.LibraryPath != "" {
		return s.cfg.LibraryPath
	}
	return meshfix.DefaultLibraryName()
}

// repairOperation returns an orchestrator over the shared, gated library.
func (s *runtimeState) repairOperation() (*operations.RepairOperation, error) {
	if s.gate == nil {
		path := s.libraryPath()
		fixer, closer, err := s.deps.OpenFixer(path)
		if err != nil {
			return nil, fmt.Errorf("open MeshFix library (set --library or %s): %w", config.EnvLibrary, err)
		}
		s.logger.Debug("loaded native library", zap.String("path", path))
		s.gate = meshfix.NewGate(fixer, s.cfg.NativeConcurrency)
		s.closer = closer
	}
	return operations.NewRepairOperation(s.gate).WithLogger(s.logger), nil
}

func (s *runtimeState) runTUI() error {
	// Log lines on stderr would tear the full-screen UI.
	s.logger = zap.NewNop()

	op, err := s.repairOperation()
	if err != nil {
		return err
	}
	return s.deps.RunTUI(tui.Services{
		Repair:  op,
		Reveal:  s.deps.Reveal,
		Workers: int(s.gate.Limit()),
	})
}

func (s *runtimeState) close() {
	_ = s.logger.Sync()
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			s.logger.Warn("closing native library", zap.Error(err))
		}
		s.closer = nil
	}
}

// isTerminal returns true if stderr is a terminal
func isTerminal() bool {
	fileInfo, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Package desktop holds the file-system collaborators of the repair front
// ends: raw file reads for previews and revealing a file in the platform
// file manager.
package desktop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ReadRawFile returns the bytes of path unchanged.
func ReadRawFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Runner starts an external command and waits for it.
type Runner func(ctx context.Context, name string, args ...string) error

// ExecRunner runs the command with os/exec. A non-zero exit status is not an
// error: explorer.exe reports 1 even when it opened the window.
func ExecRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err == nil || errors.As(err, &exitErr) {
		return nil
	}
	if stderr.Len() > 0 {
		return fmt.Errorf("%s: %w: %s", name, err, stderr.String())
	}
	return fmt.Errorf("%s: %w", name, err)
}

// Revealer opens the platform file manager at a file.
type Revealer struct {
	goos string
	run  Runner
}

// NewRevealer returns a Revealer for the running OS.
func NewRevealer() *Revealer {
	return &Revealer{goos: runtime.GOOS, run: ExecRunner}
}

// WithRunner replaces the command runner.
func (r *Revealer) WithRunner(run Runner) *Revealer {
	if run != nil {
		r.run = run
	}
	return r
}

// WithOS selects the platform behavior, for tests.
func (r *Revealer) WithOS(goos string) *Revealer {
	r.goos = goos
	return r
}

// Command returns the program and arguments used to reveal path.
func (r *Revealer) Command(path string) (string, []string, error) {
	switch r.goos {
	case "darwin":
		return "open", []string{"-R", path}, nil
	case "windows":
		return "explorer", []string{"/select,", path}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		// xdg-open cannot select a file, so open its directory.
		parent := filepath.Dir(path)
		if path == "" || parent == path {
			return "", nil, errors.New("invalid file path")
		}
		return "xdg-open", []string{parent}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform %s", r.goos)
	}
}

// Reveal shows path in the file manager.
func (r *Revealer) Reveal(ctx context.Context, path string) error {
	name, args, err := r.Command(path)
	if err != nil {
		return fmt.Errorf("failed to open file location: %w", err)
	}
	if err := r.run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to open file location: %w", err)
	}
	return nil
}

// RevealInFileManager reveals path using the running OS's file manager.
func RevealInFileManager(ctx context.Context, path string) error {
	return NewRevealer().Reveal(ctx, path)
}

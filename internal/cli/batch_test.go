package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBatch_JSONReport(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeMesh(t, dir, "a.stl")
	writeMesh(t, dir, "b.off")
	writeMesh(t, dir, "a_fixed.stl")
	writeMesh(t, dir, "notes.txt")

	if err := env.run("batch", dir, "--format", "json", "--progress", "none"); err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	var out struct {
		Total    int `json:"total"`
		Repaired int `json:"repaired"`
		Failed   int `json:"failed"`
	}
	if err := json.Unmarshal(env.out.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, env.out)
	}
	if out.Total != 2 || out.Repaired != 2 || out.Failed != 0 {
		t.Errorf("unexpected summary %+v", out)
	}
}

func TestBatch_FailuresReturnErrRepairFailed(t *testing.T) {
	env := newTestEnv(t)
	env.fixer.code = 1
	dir := t.TempDir()
	writeMesh(t, dir, "a.stl")

	err := env.run("batch", dir, "--color=false", "--progress", "simple")
	if !errors.Is(err, ErrRepairFailed) {
		t.Fatalf("expected ErrRepairFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "1 of 1 meshes not repaired") {
		t.Errorf("unexpected error text: %v", err)
	}
	if !strings.Contains(env.out.String(), "Cannot open input file") {
		t.Errorf("expected failure message:\n%s", env.out)
	}
}

func TestBatch_OutputDirAndOptions(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "repaired")
	writeMesh(t, dir, "a.stl")

	if err := env.run("batch", dir, "--output-dir", outDir, "--off", "--progress", "none", "--summary-only"); err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if _, err := os.Stat(outDir); err != nil {
		t.Errorf("expected output dir to be created: %v", err)
	}
	if got := env.fixer.outputs[0]; got != filepath.Join(outDir, "a_fixed.off") {
		t.Errorf("unexpected output %q", got)
	}
	if env.fixer.opts[0].STLOutput {
		t.Error("expected --off to select OFF output")
	}
}

func TestBatch_NoFiles(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("batch", t.TempDir(), "--progress", "none"); err == nil {
		t.Error("expected error for empty directory")
	}
	if env.libPath != "" {
		t.Error("library must not be opened when there is nothing to repair")
	}
}

func TestRoot_QuickBatchDirectory(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeMesh(t, dir, "a.stl")

	if err := env.run(dir, "--format", "markdown"); err != nil {
		t.Fatalf("quick batch failed: %v", err)
	}
	if !strings.Contains(env.out.String(), "# Batch Repair Report") {
		t.Errorf("unexpected output:\n%s", env.out)
	}
}

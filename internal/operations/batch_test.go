package operations

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/petereon/fix-stl/internal/meshfix"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDefaultBatchConfig(t *testing.T) {
	config := DefaultBatchConfig()

	if config.NumWorkers != 1 {
		t.Errorf("Expected NumWorkers to be 1, got %d", config.NumWorkers)
	}

	if config.QueueSize != 100 {
		t.Errorf("Expected QueueSize to be 100, got %d", config.QueueSize)
	}

	if config.ProgressRate != 100*time.Millisecond {
		t.Errorf("Expected ProgressRate to be 100ms, got %v", config.ProgressRate)
	}
}

func TestNewBatchProcessor_Floors(t *testing.T) {
	bp := NewBatchProcessor(context.Background(), NewRepairOperation(&fakeFixer{}), BatchConfig{})
	defer bp.Cancel()

	if bp.config.NumWorkers != 1 {
		t.Errorf("Expected NumWorkers floored to 1, got %d", bp.config.NumWorkers)
	}
	if bp.config.QueueSize != 1 {
		t.Errorf("Expected QueueSize floored to 1, got %d", bp.config.QueueSize)
	}
	if bp.config.ProgressRate <= 0 {
		t.Errorf("Expected positive ProgressRate, got %v", bp.config.ProgressRate)
	}
}

func TestFindFiles(t *testing.T) {
	tmpDir := t.TempDir()

	// root/
	//   part1.stl
	//   part2.OFF
	//   part1_fixed.stl
	//   notes.txt
	//   subdir/
	//     part3.stl
	//     nested/
	//       part4.off

	if err := os.MkdirAll(filepath.Join(tmpDir, "subdir", "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"part1.stl",
		"part2.OFF",
		"part1_fixed.stl",
		"notes.txt",
		filepath.Join("subdir", "part3.stl"),
		filepath.Join("subdir", "nested", "part4.off"),
	} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("test"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name     string
		opts     FindFilesOptions
		expected int
	}{
		{"Recursive all", FindFilesOptions{Recursive: true, MaxDepth: -1}, 4},
		{"Non-recursive", FindFilesOptions{Recursive: false, MaxDepth: -1}, 2},
		{"Max depth 1", FindFilesOptions{Recursive: true, MaxDepth: 1}, 2},
		{"Extensions filter", FindFilesOptions{Recursive: true, MaxDepth: -1, Extensions: []string{".stl"}}, 2},
		{"Extensions without dots", FindFilesOptions{Recursive: true, MaxDepth: -1, Extensions: []string{"off"}}, 2},
		{"Ignore directory", FindFilesOptions{Recursive: true, MaxDepth: -1, Ignore: []string{"subdir"}}, 2},
		{"Ignore file pattern", FindFilesOptions{Recursive: true, MaxDepth: -1, Ignore: []string{"part1.*"}}, 3},
		{"Include repaired", FindFilesOptions{Recursive: true, MaxDepth: -1, IncludeRepaired: true}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := FindFiles(tmpDir, tt.opts)
			if err != nil {
				t.Fatalf("FindFiles failed: %v", err)
			}
			if len(files) != tt.expected {
				t.Errorf("Expected %d files, got %d: %v", tt.expected, len(files), files)
			}
		})
	}
}

func TestFindFiles_MissingRoot(t *testing.T) {
	_, err := FindFiles(filepath.Join(t.TempDir(), "missing"), FindFilesOptions{Recursive: true, MaxDepth: -1})
	if err == nil {
		t.Error("Expected error for missing root")
	}
}

func TestBatchProcessor_Execute(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeMesh(t, dir, "a.stl"),
		writeMesh(t, dir, "b.stl"),
		filepath.Join(dir, "missing.stl"),
	}

	fixer := &fakeFixer{code: 0}
	config := DefaultBatchConfig()
	config.NumWorkers = 2
	config.ProgressRate = time.Millisecond
	bp := NewBatchProcessor(context.Background(), NewRepairOperation(meshfix.NewGate(fixer, 1)), config)

	results := bp.Execute(files)

	if len(results) != len(files) {
		t.Fatalf("Expected %d results, got %d", len(files), len(results))
	}
	if fixer.callCount() != 2 {
		t.Errorf("Expected 2 native calls, got %d", fixer.callCount())
	}

	// The progress channel is closed once Execute returns.
	for range bp.ProgressChannel() {
	}

	br := AggregateResults(results, time.Second)
	if len(br.Repaired) != 2 {
		t.Errorf("Expected 2 repaired, got %d", len(br.Repaired))
	}
	if len(br.Failed) != 1 {
		t.Errorf("Expected 1 failed, got %d", len(br.Failed))
	}
	if br.OK() {
		t.Error("Expected batch with a missing input to not be OK")
	}
}

func TestBatchProcessor_OutputDir(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	input := writeMesh(t, dir, "part.stl")

	fixer := &fakeFixer{}
	config := DefaultBatchConfig()
	config.OutputDir = outDir
	config.Options = &meshfix.PartialOptions{STLOutput: meshfix.Bool(false)}

	results := NewBatchProcessor(context.Background(), NewRepairOperation(fixer), config).Execute([]string{input})
	if len(results) != 1 || results[0].Response == nil || results[0].Response.OutputPath == nil {
		t.Fatalf("Unexpected results: %+v", results)
	}

	want := filepath.Join(outDir, "part_fixed.off")
	if got := *results[0].Response.OutputPath; got != want {
		t.Errorf("Expected output %q, got %q", want, got)
	}
}

func TestBatchProcessor_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fixer := &fakeFixer{}
	bp := NewBatchProcessor(ctx, NewRepairOperation(fixer), DefaultBatchConfig())
	results := bp.Execute([]string{"a.stl", "b.stl"})

	if fixer.callCount() != 0 {
		t.Errorf("Expected no native calls after cancel, got %d", fixer.callCount())
	}
	if len(results) > 2 {
		t.Errorf("Expected at most 2 results, got %d", len(results))
	}
}

func TestAggregateResults(t *testing.T) {
	ok := "/out/a_fixed.stl"
	results := []Result{
		{FilePath: "c.stl", Response: &Response{Success: false, Message: "Output file already exists"}},
		{FilePath: "a.stl", Response: &Response{Success: true, Message: "Mesh fixed successfully", OutputPath: &ok}},
		{FilePath: "b.stl", Error: errors.New("invalid input path: contains null bytes")},
		{FilePath: "d.stl"},
	}

	br := AggregateResults(results, 2*time.Second)

	if br.Total != 4 {
		t.Errorf("Expected total 4, got %d", br.Total)
	}
	if len(br.Repaired) != 1 || br.Repaired[0].FilePath != "a.stl" {
		t.Errorf("Unexpected repaired: %+v", br.Repaired)
	}
	if len(br.Failed) != 1 || br.Failed[0].FilePath != "c.stl" {
		t.Errorf("Unexpected failed: %+v", br.Failed)
	}
	if len(br.Errored) != 2 || br.Errored[0].FilePath != "b.stl" {
		t.Errorf("Unexpected errored: %+v", br.Errored)
	}
	if br.Duration != 2*time.Second {
		t.Errorf("Expected duration 2s, got %v", br.Duration)
	}
}

func TestAggregateResults_AllSuccessful(t *testing.T) {
	results := []Result{
		{FilePath: "file1.stl", Response: &Response{Success: true}},
		{FilePath: "file2.stl", Response: &Response{Success: true}},
	}

	br := AggregateResults(results, 0)
	if !br.OK() {
		t.Error("Expected batch to be OK")
	}
	if len(br.Repaired) != 2 {
		t.Errorf("Expected 2 repaired results, got %d", len(br.Repaired))
	}
}

func TestResult_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Result{FilePath: "x.stl", Error: errors.New("boom")})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"error":"boom"`) {
		t.Errorf("Expected error message in JSON, got %s", data)
	}
	if strings.Contains(string(data), `"response"`) {
		t.Errorf("Expected response omitted, got %s", data)
	}
}

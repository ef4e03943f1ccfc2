package operations

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petereon/fix-stl/internal/meshfix"
)

// fakeFixer records calls and answers with a fixed code.
type fakeFixer struct {
	mu    sync.Mutex
	code  int
	err   error
	calls []fixCall
}

type fixCall struct {
	input  string
	output *string
	opts   meshfix.Options
}

func (f *fakeFixer) Fix(_ context.Context, input string, output *string, opts meshfix.Options) (meshfix.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fixCall{input: input, output: output, opts: opts})
	if f.err != nil {
		return meshfix.Outcome{}, f.err
	}
	return meshfix.OutcomeFromCode(f.code), nil
}

func (f *fakeFixer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func writeMesh(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("solid test\nendsolid test\n"), 0644))
	return path
}

func TestRepairOperation_MissingInput(t *testing.T) {
	fixer := &fakeFixer{}
	op := NewRepairOperation(fixer)

	input := filepath.Join(t.TempDir(), "nope.stl")
	resp, err := op.Execute(context.Background(), Request{InputPath: input})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, "Input file does not exist: "+input, resp.Message)
	assert.Nil(t, resp.OutputPath)
	assert.Equal(t, 0, fixer.callCount())
}

func TestRepairOperation_DirectoryIsNotAnInput(t *testing.T) {
	fixer := &fakeFixer{}
	dir := t.TempDir()

	resp, err := NewRepairOperation(fixer).Execute(context.Background(), Request{InputPath: dir})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "Input file does not exist")
	assert.Equal(t, 0, fixer.callCount())
}

func TestRepairOperation_DerivedOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeMesh(t, dir, "model.stl")
	fixer := &fakeFixer{code: 0}

	resp, err := NewRepairOperation(fixer).Execute(context.Background(), Request{InputPath: input})
	require.NoError(t, err)

	want := filepath.Join(dir, "model_fixed.stl")
	assert.True(t, resp.Success)
	assert.Equal(t, "Mesh fixed successfully", resp.Message)
	require.NotNil(t, resp.OutputPath)
	assert.Equal(t, want, *resp.OutputPath)

	require.Equal(t, 1, fixer.callCount())
	call := fixer.calls[0]
	assert.Equal(t, input, call.input)
	require.NotNil(t, call.output, "orchestrator always passes a resolved output")
	assert.Equal(t, want, *call.output)
	assert.Equal(t, meshfix.DefaultOptions(), call.opts)
}

func TestRepairOperation_OffExtension(t *testing.T) {
	dir := t.TempDir()
	input := writeMesh(t, dir, "model.stl")
	fixer := &fakeFixer{}

	resp, err := NewRepairOperation(fixer).Execute(context.Background(), Request{
		InputPath: input,
		Options:   &meshfix.PartialOptions{STLOutput: meshfix.Bool(false)},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.OutputPath)
	assert.Equal(t, filepath.Join(dir, "model_fixed.off"), *resp.OutputPath)
	assert.Equal(t, meshfix.Options{STLOutput: false}, fixer.calls[0].opts)
}

func TestRepairOperation_SuppliedOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeMesh(t, dir, "model.stl")
	out := filepath.Join(dir, "elsewhere", "result.off")
	fixer := &fakeFixer{}

	resp, err := NewRepairOperation(fixer).Execute(context.Background(), Request{InputPath: input, OutputPath: &out})
	require.NoError(t, err)
	require.NotNil(t, resp.OutputPath)
	assert.Equal(t, out, *resp.OutputPath)
	assert.Equal(t, out, *fixer.calls[0].output)
}

func TestRepairOperation_DomainFailures(t *testing.T) {
	tests := []struct {
		code    int
		message string
	}{
		{1, "Cannot open input file"},
		{2, "Output file already exists"},
		{42, "Unknown error occurred (code: 42)"},
		{-1, "Unknown error occurred (code: -1)"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			input := writeMesh(t, t.TempDir(), "model.stl")
			fixer := &fakeFixer{code: tt.code}

			resp, err := NewRepairOperation(fixer).Execute(context.Background(), Request{InputPath: input})
			require.NoError(t, err)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
			assert.Nil(t, resp.OutputPath)
			assert.Equal(t, 1, fixer.callCount(), "native routine runs exactly once")
		})
	}
}

func TestRepairOperation_EncodingErrorIsReturned(t *testing.T) {
	input := writeMesh(t, t.TempDir(), "model.stl")
	encErr := &meshfix.PathEncodingError{Field: "output", Path: "bad\x00"}
	fixer := &fakeFixer{err: encErr}
	out := "bad\x00"

	resp, err := NewRepairOperation(fixer).Execute(context.Background(), Request{InputPath: input, OutputPath: &out})
	assert.Nil(t, resp)
	var target *meshfix.PathEncodingError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "output", target.Field)
}

func TestRepairOperation_NulPathsNeverReachNative(t *testing.T) {
	input := writeMesh(t, t.TempDir(), "model.stl")
	calls := 0
	bridge := meshfix.NewBridge(func(in, out *byte, join, stl, skip bool) int32 {
		calls++
		return meshfix.CodeSuccess
	})
	op := NewRepairOperation(bridge)

	out := filepath.Join(t.TempDir(), "bad\x00.stl")
	resp, err := op.Execute(context.Background(), Request{InputPath: input, OutputPath: &out})
	assert.Nil(t, resp)
	var encErr *meshfix.PathEncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, "output", encErr.Field)

	// The existence check rejects the input before the bridge sees it.
	resp, err = op.Execute(context.Background(), Request{InputPath: input + "\x00"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.OutputPath)

	assert.Zero(t, calls, "native routine must not run")

	resp, err = op.Execute(context.Background(), Request{InputPath: input})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, calls)
}

func TestRepairOperation_InvalidInputName(t *testing.T) {
	fixer := &fakeFixer{}
	op := NewRepairOperation(fixer).WithStat(func(string) (os.FileInfo, error) {
		return os.Stat(os.Args[0])
	})

	resp, err := op.Execute(context.Background(), Request{InputPath: ".."})
	assert.Nil(t, resp)
	var pathErr *PathError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, 0, fixer.callCount())
}

func TestResponse_JSON(t *testing.T) {
	data, err := json.Marshal(MissingInputResponse("/x.stl"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"Input file does not exist: /x.stl","output_path":null}`, string(data))

	data, err = json.Marshal(NewResponse(meshfix.OutcomeFromCode(0), "/x_fixed.stl"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"Mesh fixed successfully","output_path":"/x_fixed.stl"}`, string(data))
}

func TestRequest_JSONPartialOptions(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"input_path":"/a.stl","options":{"stl_output":false}}`), &req))
	assert.Equal(t, "/a.stl", req.InputPath)
	assert.Nil(t, req.OutputPath)
	assert.Equal(t, meshfix.Options{STLOutput: false}, meshfix.NormalizeOptions(req.Options))
}

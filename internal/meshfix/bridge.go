// Package meshfix binds the native MeshFix repair routine.
//
// The native library exports a single entry point:
//
//	int fixMesh(const char *infilename, const char *outfilename,
//	            bool joinMultipleComponents, bool stlOutput, bool skipIfFixed);
//
// Bridge is the only type in this module that hands memory to native code.
// Everything above it works with plain Go strings and values.
package meshfix

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// Fixer runs one repair of input into output. Implementations are the
// native Bridge, the Library that owns it, and decorators such as Gate.
type Fixer interface {
	Fix(ctx context.Context, input string, output *string, opts Options) (Outcome, error)
}

// NativeFunc is the Go signature bound to the native fixMesh symbol.
type NativeFunc func(infilename, outfilename *byte, joinMultipleComponents, stlOutput, skipIfFixed bool) int32

// PathEncodingError reports a path that cannot be passed as a C string.
type PathEncodingError struct {
	Field string // "input" or "output"
	Path  string
}

func (e *PathEncodingError) Error() string {
	return fmt.Sprintf("invalid %s path: contains null bytes", e.Field)
}

// Bridge calls the native routine. It holds no state besides the bound
// function and may be shared, subject to the reentrancy of the library.
type Bridge struct {
	fixMesh NativeFunc
}

// NewBridge wraps an already bound fixMesh function. Open does this for the
// dynamic library; callers with their own binding use it directly.
func NewBridge(fn NativeFunc) *Bridge {
	return &Bridge{fixMesh: fn}
}

// Fix converts both paths to NUL-terminated buffers and performs exactly one
// native call. A nil output is passed to the library as a null pointer.
//
// The call blocks until the native routine returns. ctx is only consulted
// before the call is issued; a running repair cannot be interrupted.
func (b *Bridge) Fix(ctx context.Context, input string, output *string, opts Options) (Outcome, error) {
	in, err := cString("input", input)
	if err != nil {
		return Outcome{}, err
	}

	var out []byte
	if output != nil {
		out, err = cString("output", *output)
		if err != nil {
			return Outcome{}, err
		}
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	var outPtr *byte
	if out != nil {
		outPtr = &out[0]
	}

	code := b.fixMesh(&in[0], outPtr, opts.JoinMultipleComponents, opts.STLOutput, opts.SkipIfFixed)

	// The native side may read the buffers until fixMesh returns.
	runtime.KeepAlive(in)
	runtime.KeepAlive(out)

	return OutcomeFromCode(int(code)), nil
}

// cString copies s into a new NUL-terminated buffer.
func cString(field, s string) ([]byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, &PathEncodingError{Field: field, Path: s}
	}
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return buf, nil
}

package meshfix

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

// SymbolName is the exported native entry point.
const SymbolName = "fixMesh"

// ErrLibraryUnavailable is returned when the native library or its entry
// point cannot be loaded.
var ErrLibraryUnavailable = errors.New("meshfix library unavailable")

// DefaultLibraryName returns the platform file name of the native library.
// A bare name lets the dynamic loader search its usual paths.
func DefaultLibraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libmeshfix.dylib"
	case "windows":
		return "meshfix.dll"
	default:
		return "libmeshfix.so"
	}
}

// Library is a loaded native MeshFix library.
type Library struct {
	path   string
	handle uintptr
	bridge *Bridge

	closeOnce sync.Once
	closeErr  error
}

// Open loads the library at path (or DefaultLibraryName when empty) and
// binds its fixMesh symbol.
func Open(path string) (*Library, error) {
	if path == "" {
		path = DefaultLibraryName()
	}

	handle, err := openLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrLibraryUnavailable, path, err)
	}

	sym, err := lookupSymbol(handle, SymbolName)
	if err != nil {
		_ = closeLibrary(handle)
		return nil, fmt.Errorf("%w: resolve %s in %s: %v", ErrLibraryUnavailable, SymbolName, path, err)
	}

	var fn NativeFunc
	purego.RegisterFunc(&fn, sym)

	return &Library{
		path:   path,
		handle: handle,
		bridge: NewBridge(fn),
	}, nil
}

// Path returns the path the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Bridge returns the bridge bound to this library.
func (l *Library) Bridge() *Bridge {
	return l.bridge
}

// Fix forwards to the library's Bridge.
func (l *Library) Fix(ctx context.Context, input string, output *string, opts Options) (Outcome, error) {
	return l.bridge.Fix(ctx, input, output, opts)
}

// Close unloads the library. No call may be in flight.
func (l *Library) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = closeLibrary(l.handle)
	})
	return l.closeErr
}

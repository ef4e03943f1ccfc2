//go:build !darwin && !linux && !windows

package meshfix

import (
	"fmt"
	"runtime"
)

func openLibrary(path string) (uintptr, error) {
	return 0, fmt.Errorf("dynamic loading is not supported on %s", runtime.GOOS)
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return 0, fmt.Errorf("dynamic loading is not supported on %s", runtime.GOOS)
}

func closeLibrary(handle uintptr) error {
	return nil
}

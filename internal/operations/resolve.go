package operations

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/petereon/fix-stl/internal/meshfix"
)

// FixedSuffix is appended to the input stem when deriving an output name.
const FixedSuffix = "_fixed"

// PathError reports an input path from which no output path can be derived.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %q", e.Reason, e.Path)
}

// ResolveOutputPath returns the path the repaired mesh is written to.
//
// A caller-supplied output is returned unchanged. Otherwise the output is
// {dir}/{stem}_fixed.{stl|off} next to the input. The derived path is not
// checked for existence; the native routine reports collisions.
func ResolveOutputPath(input string, output *string, opts meshfix.Options) (string, error) {
	if output != nil {
		return *output, nil
	}

	stem, err := fileStem(input)
	if err != nil {
		return "", err
	}

	return filepath.Join(filepath.Dir(input), fmt.Sprintf("%s%s.%s", stem, FixedSuffix, opts.Extension())), nil
}

// fileStem returns the file name of path without its final extension.
// A name that is only a dot-prefixed word (".mesh") is its own stem. Roots
// and dot entries have neither a stem nor a usable parent.
func fileStem(path string) (string, error) {
	if path == "" {
		return "", &PathError{Path: path, Reason: "invalid input filename"}
	}

	base := filepath.Base(path)
	switch base {
	case ".", "..", string(filepath.Separator):
		return "", &PathError{Path: path, Reason: "invalid input filename"}
	}
	if vol := filepath.VolumeName(path); vol != "" && strings.TrimRight(path, `\/`) == vol {
		return "", &PathError{Path: path, Reason: "invalid input filename"}
	}

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return stem, nil
}

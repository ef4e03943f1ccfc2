package meshfix

import "fmt"

// Status codes returned by the native fixMesh routine.
const (
	CodeSuccess          = 0
	CodeCantOpenFile     = 1
	CodeOutputFileExists = 2
)

// OutcomeKind classifies a native status code.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeCantOpenFile
	OutcomeOutputFileExists
	OutcomeUnknownError
)

// String returns a stable name for the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeCantOpenFile:
		return "cant_open_file"
	case OutcomeOutputFileExists:
		return "output_file_exists"
	default:
		return "unknown_error"
	}
}

// Outcome is the typed result of one native call. Code always holds the raw
// status the native routine returned.
type Outcome struct {
	Kind OutcomeKind
	Code int
}

// OutcomeFromCode maps a native status code to an Outcome.
// Codes outside the documented set are kept verbatim as OutcomeUnknownError.
func OutcomeFromCode(code int) Outcome {
	switch code {
	case CodeSuccess:
		return Outcome{Kind: OutcomeSuccess, Code: code}
	case CodeCantOpenFile:
		return Outcome{Kind: OutcomeCantOpenFile, Code: code}
	case CodeOutputFileExists:
		return Outcome{Kind: OutcomeOutputFileExists, Code: code}
	default:
		return Outcome{Kind: OutcomeUnknownError, Code: code}
	}
}

// Success reports whether the native routine produced a repaired mesh.
func (o Outcome) Success() bool {
	return o.Kind == OutcomeSuccess
}

// Message returns the user-facing message for the outcome. Front ends match
// on these strings, so they must not change.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeSuccess:
		return "Mesh fixed successfully"
	case OutcomeCantOpenFile:
		return "Cannot open input file"
	case OutcomeOutputFileExists:
		return "Output file already exists"
	default:
		return fmt.Sprintf("Unknown error occurred (code: %d)", o.Code)
	}
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s (code %d)", o.Kind, o.Code)
}

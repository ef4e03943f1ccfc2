package api

import (
	"net/http"
	"strings"
)

func ValidationError(details map[string]string) *APIError {
	return &APIError{
		Status: http.StatusBadRequest,
		Err: Error{
			Code:    "validation_error",
			Message: "invalid request",
			Details: details,
		},
	}
}

// Unprocessable reports a well-formed request the command could not act on.
func Unprocessable(code, message string) *APIError {
	return &APIError{
		Status: http.StatusUnprocessableEntity,
		Err:    Error{Code: code, Message: message},
	}
}

func Internal(message string) *APIError {
	return &APIError{
		Status: http.StatusInternalServerError,
		Err:    Error{Code: "internal_error", Message: message},
	}
}

// RequirePath rejects a missing or blank path field.
func RequirePath(raw, field string) (string, *APIError) {
	if strings.TrimSpace(raw) == "" {
		return "", ValidationError(map[string]string{field: "is required"})
	}
	return raw, nil
}

type pathBody struct {
	Path string `json:"path"`
}

// ReadPathBodyJSON decodes {"path": "..."}.
func ReadPathBodyJSON(r *http.Request) (string, *APIError) {
	var b pathBody
	if apiErr := ReadJSON(r, &b); apiErr != nil {
		return "", apiErr
	}
	return RequirePath(b.Path, "path")
}

package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
)

// ReadJSON decodes a single JSON object from an application/json body.
// Other content types are refused so that browsers cannot send the body
// as a simple cross-origin request.
func ReadJSON(r *http.Request, dst any) *APIError {
	if apiErr := RequireJSON(r); apiErr != nil {
		return apiErr
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		// http.MaxBytesReader error text starts with "http: request body too large"
		if strings.HasPrefix(err.Error(), "http: request body too large") {
			return &APIError{
				Status: http.StatusRequestEntityTooLarge,
				Err: Error{
					Code:    "payload_too_large",
					Message: "request body too large",
				},
			}
		}

		return BadJSON()
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return BadJSON()
	}

	return nil
}

func BadJSON() *APIError {
	return &APIError{
		Status: http.StatusBadRequest,
		Err: Error{
			Code:    "bad_json",
			Message: "bad json",
		},
	}
}

// RequireJSON rejects requests whose Content-Type is not application/json.
func RequireJSON(r *http.Request) *APIError {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return &APIError{
			Status: http.StatusUnsupportedMediaType,
			Err: Error{
				Code:    "unsupported_media_type",
				Message: "content type must be application/json",
			},
		}
	}
	return nil
}

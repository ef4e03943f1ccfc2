package api

import (
	"encoding/json"
	"net/http"
)

type APIError struct {
	Status int
	Err    Error
}

func (e *APIError) Error() string { return e.Err.Message }

type Handler func(r *http.Request) (any, *APIError)

func Wrap(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, apiErr := h(r)
		WriteJSON(w, data, apiErr)
	}
}

func WrapMethod(method string, h Handler) http.HandlerFunc {
	return Wrap(func(r *http.Request) (any, *APIError) {
		if apiErr := RequireMethod(r, method); apiErr != nil {
			return nil, apiErr
		}
		return h(r)
	})
}

// WriteJSON writes the success or error envelope.
func WriteJSON(w http.ResponseWriter, data any, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json")

	if apiErr != nil {
		w.WriteHeader(apiErr.Status)
		_ = json.NewEncoder(w).Encode(Response{OK: false, Error: &apiErr.Err})
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(Response{OK: true, Data: data})
}

func RequireMethod(r *http.Request, method string) *APIError {
	if r.Method != method {
		return &APIError{
			Status: http.StatusMethodNotAllowed,
			Err:    Error{Code: "method_not_allowed", Message: "method not allowed"},
		}
	}
	return nil
}

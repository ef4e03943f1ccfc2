// Package server exposes the repair commands over HTTP as JSON endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/petereon/fix-stl/internal/desktop"
	"github.com/petereon/fix-stl/internal/meshfix"
	"github.com/petereon/fix-stl/internal/operations"
	"github.com/petereon/fix-stl/internal/server/api"
)

const (
	maxCommandBytes = 64 << 10
	shutdownTimeout = 5 * time.Second
)

// RevealFunc shows a file in the platform file manager.
type RevealFunc func(ctx context.Context, path string) error

// ReadFunc returns a file's raw bytes.
type ReadFunc func(path string) ([]byte, error)

// loopbackHosts are always accepted in Host and Origin headers.
var loopbackHosts = []string{"localhost", "127.0.0.1", "::1"}

type Server struct {
	op     *operations.RepairOperation
	reveal RevealFunc
	read   ReadFunc
	logger *zap.Logger
	hosts  map[string]struct{}
}

func New(op *operations.RepairOperation, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		op:     op,
		reveal: desktop.RevealInFileManager,
		read:   desktop.ReadRawFile,
		logger: logger,
		hosts:  make(map[string]struct{}),
	}
	return s.WithAllowedHosts(loopbackHosts...)
}

// WithAllowedHosts accepts requests addressed to the given host names in
// addition to loopback. Ports are ignored.
func (s *Server) WithAllowedHosts(hosts ...string) *Server {
	for _, h := range hosts {
		if h = normalizeHost(h); h != "" {
			s.hosts[h] = struct{}{}
		}
	}
	return s
}

// WithReveal replaces the file manager collaborator.
func (s *Server) WithReveal(fn RevealFunc) *Server {
	if fn != nil {
		s.reveal = fn
	}
	return s
}

// WithRead replaces the raw file reader.
func (s *Server) WithRead(fn ReadFunc) *Server {
	if fn != nil {
		s.read = fn
	}
	return s
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	handleAPIMethod(mux, "/api/fix_mesh_file", http.MethodPost, maxCommandBytes, s.fixMeshFileAPI)
	handleAPIMethod(mux, "/api/reveal_in_file_manager", http.MethodPost, maxCommandBytes, s.revealAPI)
	mux.HandleFunc("/api/read_raw_file", s.handleReadRawFile)

	return s.logRequests(s.guardHosts(mux))
}

// guardHosts refuses requests whose Host or Origin names a host the
// server was not told about.
func (s *Server) guardHosts(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.allowedHost(r.Host) {
			s.logger.Warn("rejected request host", zap.String("host", r.Host))
			api.WriteJSON(w, nil, forbidden("host_not_allowed", "host not allowed"))
			return
		}
		if origin := r.Header.Get("Origin"); origin != "" {
			u, err := url.Parse(origin)
			if err != nil || !s.allowedHost(u.Host) {
				s.logger.Warn("rejected request origin", zap.String("origin", origin))
				api.WriteJSON(w, nil, forbidden("origin_not_allowed", "origin not allowed"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedHost(hostport string) bool {
	h := normalizeHost(hostport)
	if h == "" {
		return false
	}
	_, ok := s.hosts[h]
	return ok
}

// normalizeHost strips the port and IPv6 brackets and lowercases the name.
func normalizeHost(hostport string) string {
	h := strings.TrimSpace(hostport)
	if host, _, err := net.SplitHostPort(h); err == nil {
		h = host
	}
	return strings.ToLower(strings.Trim(h, "[]"))
}

func forbidden(code, message string) *api.APIError {
	return &api.APIError{
		Status: http.StatusForbidden,
		Err:    api.Error{Code: code, Message: message},
	}
}

func handleAPIMethod(mux *http.ServeMux, path, method string, maxBytes int64, h api.Handler) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		api.WrapMethod(method, h)(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
// Repairs already inside the native library finish before it returns.
//
// The host part of addr is accepted in Host headers; wildcard addresses
// accept loopback only unless more hosts are allowed.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		if ip := net.ParseIP(host); ip == nil || !ip.IsUnspecified() {
			s.WithAllowedHosts(host)
		}
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) fixMeshFileAPI(r *http.Request) (any, *api.APIError) {
	var req operations.Request
	if apiErr := api.ReadJSON(r, &req); apiErr != nil {
		return nil, apiErr
	}

	resp, err := s.op.Execute(r.Context(), req)
	if err != nil {
		return nil, repairError(err)
	}
	return resp, nil
}

// repairError maps errors that kept a request from reaching a domain outcome.
func repairError(err error) *api.APIError {
	var encErr *meshfix.PathEncodingError
	if errors.As(err, &encErr) {
		field := "input_path"
		if encErr.Field == "output" {
			field = "output_path"
		}
		return api.ValidationError(map[string]string{field: "contains null bytes"})
	}

	var pathErr *operations.PathError
	if errors.As(err, &pathErr) {
		return api.Unprocessable("invalid_path", pathErr.Error())
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &api.APIError{
			Status: http.StatusServiceUnavailable,
			Err:    api.Error{Code: "canceled", Message: "request canceled before repair started"},
		}
	}

	return api.Internal(err.Error())
}

type revealResp struct {
	Revealed bool `json:"revealed"`
}

func (s *Server) revealAPI(r *http.Request) (any, *api.APIError) {
	path, apiErr := api.ReadPathBodyJSON(r)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := s.reveal(r.Context(), path); err != nil {
		return nil, api.Unprocessable("reveal_failed", err.Error())
	}
	return revealResp{Revealed: true}, nil
}

// handleReadRawFile streams file bytes on success and the JSON error
// envelope on failure.
func (s *Server) handleReadRawFile(w http.ResponseWriter, r *http.Request) {
	if apiErr := api.RequireMethod(r, http.MethodPost); apiErr != nil {
		api.WriteJSON(w, nil, apiErr)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCommandBytes)

	path, apiErr := api.ReadPathBodyJSON(r)
	if apiErr != nil {
		api.WriteJSON(w, nil, apiErr)
		return
	}

	data, err := s.read(path)
	if err != nil {
		status := http.StatusInternalServerError
		code := "read_failed"
		if errors.Is(err, fs.ErrNotExist) {
			status = http.StatusNotFound
			code = "not_found"
		}
		api.WriteJSON(w, nil, &api.APIError{Status: status, Err: api.Error{Code: code, Message: err.Error()}})
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

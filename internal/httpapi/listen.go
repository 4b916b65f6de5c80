package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Server runs a handler on a caller-provided listener so the listener can be
// bound before the accept loop starts.
type Server struct {
	srv *http.Server
}

// NewServer wraps h with conservative connection timeouts.
func NewServer(h http.Handler) *Server {
	return &Server{srv: &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Serve accepts connections until Shutdown or Close.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes the listener and waits for active requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

// Close drops every connection immediately.
func (s *Server) Close() error { return s.srv.Close() }

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Sefaria/sefaria-mcp/pkg/logging"
)

const (
	// MetricsPath is where the exposition is served.
	MetricsPath = "/metrics"

	readHeaderTimeout = 10 * time.Second
)

// Server exposes a State on its own listener, separate from the session
// transport.
type Server struct {
	addr  string
	state *State

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
	done     chan struct{}
}

// NewServer creates a metrics server for addr ("host:port"). Nothing is
// bound until Start.
func NewServer(addr string, state *State) *Server {
	return &Server{addr: addr, state: state}
}

// Start binds the listener and serves in the background. Binding errors,
// such as the port being in use, are returned synchronously.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return fmt.Errorf("metrics server already started")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(MetricsPath, s.state.Handler())

	s.listener = ln
	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.done = make(chan struct{})

	srv, done := s.srv, s.done
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics", err, "Metrics server stopped unexpectedly")
		}
	}()

	logging.Info("Metrics", "Serving metrics on http://%s%s", ln.Addr(), MetricsPath)
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Shutdown stops the server. Calling it on a server that never started is
// a no-op.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.srv, s.done
	s.srv = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	err := srv.Shutdown(ctx)
	<-done
	return err
}

// StartBestEffort starts a metrics server and returns it. When the listener
// cannot be bound it logs a warning and returns nil; the rest of the
// process carries on without metrics exposition.
func StartBestEffort(addr string, state *State) *Server {
	s := NewServer(addr, state)
	if err := s.Start(); err != nil {
		logging.Warn("Metrics", "Metrics endpoint unavailable, continuing without it: %v", err)
		return nil
	}
	return s
}

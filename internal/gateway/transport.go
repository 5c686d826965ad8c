package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/Sefaria/sefaria-mcp/internal/config"
	"github.com/Sefaria/sefaria-mcp/pkg/logging"
)

// Fixed routes of the HTTP transports.
const (
	SSEPath            = "/sse"
	MessagePath        = "/messages"
	StreamableHTTPPath = "/mcp"

	keepAliveInterval = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// transport is the running session transport of a Gateway.
type transport struct {
	ctx    context.Context
	cancel context.CancelFunc

	listener   net.Listener
	httpServer *http.Server

	done chan struct{}
	err  error
}

// StdioStreams overrides the streams used by the stdio transport.
type StdioStreams struct {
	In  io.Reader
	Out io.Writer
}

var defaultStdio = StdioStreams{In: os.Stdin, Out: os.Stdout}

// Start binds the transport and begins serving in the background. For the
// HTTP transports the listener is bound before Start returns, so a port
// conflict is reported here. Cancelling ctx stops the transport abruptly;
// use Stop for a graceful shutdown.
func (g *Gateway) Start(ctx context.Context) error {
	return g.start(ctx, defaultStdio)
}

// StartStdio is Start for the stdio transport with explicit streams.
func (g *Gateway) StartStdio(ctx context.Context, streams StdioStreams) error {
	return g.start(ctx, streams)
}

func (g *Gateway) start(ctx context.Context, streams StdioStreams) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.transport != nil {
		return fmt.Errorf("gateway already started")
	}

	tctx, cancel := context.WithCancel(ctx)
	t := &transport{ctx: tctx, cancel: cancel, done: make(chan struct{})}

	if g.opts.Transport == config.MCPTransportStdio {
		logging.Info("Gateway", "Starting MCP server with stdio transport")
		stdioServer := server.NewStdioServer(g.mcpServer)
		go func() {
			defer close(t.done)
			if err := stdioServer.Listen(tctx, streams.In, streams.Out); err != nil &&
				!errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
				t.err = err
				logging.Error("Gateway", err, "Stdio server error")
			}
		}()
		g.transport = t
		return nil
	}

	addr := fmt.Sprintf("%s:%d", g.opts.Host, g.opts.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	t.listener = ln
	t.httpServer = &http.Server{
		Handler:           g.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		// Request contexts derive from the transport context, so long-lived
		// SSE streams end when the transport is stopped.
		BaseContext: func(net.Listener) context.Context { return tctx },
	}

	logging.Info("Gateway", "Starting MCP server with %s transport on %s", g.opts.Transport, g.Endpoint(ln.Addr().String()))

	if g.opts.Transport == config.MCPTransportStreamableHTTP && g.opts.SessionIdleTTL > 0 {
		go g.expireIdleSessions(tctx, g.opts.SessionIdleTTL)
	}

	go func() {
		defer close(t.done)
		if err := t.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.err = err
			logging.Error("Gateway", err, "HTTP server error")
		}
	}()

	g.transport = t
	return nil
}

// Addr returns the bound address of an HTTP transport, or "" for stdio or
// before Start.
func (g *Gateway) Addr() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.transport == nil || g.transport.listener == nil {
		return ""
	}
	return g.transport.listener.Addr().String()
}

// Wait blocks until the transport stops and returns its serve error, if
// any. Stdio ends when the client closes stdin.
func (g *Gateway) Wait() error {
	g.mu.Lock()
	t := g.transport
	g.mu.Unlock()
	if t == nil {
		return fmt.Errorf("gateway not started")
	}
	<-t.done
	return t.err
}

// Stop shuts the transport down. Open sessions are closed; in-flight calls
// see their context cancelled. ctx bounds how long the shutdown may take.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	t := g.transport
	g.transport = nil
	g.mu.Unlock()

	if t == nil {
		return fmt.Errorf("gateway not started")
	}

	logging.Info("Gateway", "Stopping MCP server")

	t.cancel()

	var shutdownErr error
	if t.httpServer != nil {
		if err := t.httpServer.Shutdown(ctx); err != nil {
			logging.Error("Gateway", err, "Error shutting down HTTP server")
			shutdownErr = err
		}
	}

	select {
	case <-t.done:
	case <-ctx.Done():
		if shutdownErr == nil {
			shutdownErr = ctx.Err()
		}
	}
	return shutdownErr
}

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sefaria/sefaria-mcp/internal/api"
	"github.com/Sefaria/sefaria-mcp/internal/config"
	"github.com/Sefaria/sefaria-mcp/internal/metrics"
	"github.com/Sefaria/sefaria-mcp/internal/normalize"
	"github.com/Sefaria/sefaria-mcp/pkg/logging"
)

// Options configures a Gateway.
type Options struct {
	Name    string
	Version string

	// Instructions is sent to clients in the initialize response.
	Instructions string

	Transport string // one of the config.MCPTransport* constants
	Host      string
	Port      int

	// PublicURL is advertised by the discovery stubs; empty derives it
	// from the request.
	PublicURL      string
	DiscoveryStubs bool

	// SessionIdleTTL closes streamable HTTP sessions that saw no request
	// for this long. Clients of that transport may never send DELETE. Zero
	// keeps sessions until the client ends them.
	SessionIdleTTL time.Duration
}

// Gateway serves the registered tools over MCP.
type Gateway struct {
	opts     Options
	registry *Registry
	metrics  *metrics.State
	instr    *Instrumenter
	sessions *sessionTracker

	mcpServer *server.MCPServer

	mu        sync.Mutex
	transport *transport
}

// New assembles a gateway around registry. The registry is frozen: nothing
// can be registered once the gateway exists.
func New(opts Options, registry *Registry, state *metrics.State, tracer trace.Tracer) (*Gateway, error) {
	if registry == nil {
		return nil, &api.ConfigError{Field: "registry", Reason: "must not be nil"}
	}
	if state == nil {
		return nil, &api.ConfigError{Field: "metrics", Reason: "must not be nil"}
	}
	if opts.Transport == "" {
		opts.Transport = config.MCPTransportSSE
	}
	if opts.Name == "" {
		opts.Name = "sefaria-mcp"
	}

	registry.Freeze()

	g := &Gateway{
		opts:     opts,
		registry: registry,
		metrics:  state,
		instr:    NewInstrumenter(state, tracer),
		sessions: newSessionTracker(nil),
	}

	serverOpts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithHooks(g.hooks()),
		server.WithRecovery(),
	}
	if opts.Instructions != "" {
		serverOpts = append(serverOpts, server.WithInstructions(opts.Instructions))
	}
	g.mcpServer = server.NewMCPServer(opts.Name, opts.Version, serverOpts...)

	tools := make([]server.ServerTool, 0, registry.Len())
	for _, t := range registry.Tools() {
		tools = append(tools, server.ServerTool{
			Tool:    t.MCPTool(),
			Handler: g.toolHandler(t),
		})
	}
	g.mcpServer.AddTools(tools...)

	logging.Info("Gateway", "Registered %d tools", len(tools))
	return g, nil
}

// MCPServer exposes the underlying protocol server.
func (g *Gateway) MCPServer() *server.MCPServer {
	return g.mcpServer
}

// Registry returns the frozen tool registry.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// HandleMessage processes one raw JSON-RPC message in-process, without a
// transport. It is used by tests and tooling.
func (g *Gateway) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return g.mcpServer.HandleMessage(ctx, message)
}

// toolHandler adapts a registered tool to the mcp-go handler signature.
// Operation errors become tool-level error results so the session stays
// healthy.
func (g *Gateway) toolHandler(t *Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if session := server.ClientSessionFromContext(ctx); session != nil {
			var release func()
			ctx, release = g.sessions.track(ctx, session.SessionID())
			defer release()
		}
		payload, err := g.instr.Invoke(ctx, t, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return normalize.ToMCP(payload), nil
	}
}

// hooks observes session lifecycle and calls for unknown tools.
func (g *Gateway) hooks() *server.Hooks {
	hooks := &server.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		g.sessions.open(session.SessionID())
		g.metrics.SessionOpened()
		logging.Info("Gateway", "Session %s connected (%.0f active)",
			logging.TruncateSessionID(session.SessionID()), g.metrics.ActiveSessions())
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		id := session.SessionID()
		if n := g.sessions.inFlight(id); n > 0 {
			logging.Info("Gateway", "Session %s went away with %d calls running, cancelling them",
				logging.TruncateSessionID(id), n)
		}
		g.sessions.close(id)
		g.metrics.SessionClosed()
		logging.Info("Gateway", "Session %s disconnected (%.0f active)",
			logging.TruncateSessionID(id), g.metrics.ActiveSessions())
	})
	hooks.AddBeforeCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest) {
		if _, err := g.registry.Resolve(req.Params.Name); err != nil {
			g.metrics.UnknownTool()
			logging.Warn("Gateway", "Call for unknown tool %q", req.Params.Name)
		}
	})

	return hooks
}

// Handler returns the HTTP surface of the gateway: the session transport
// endpoints, /health and, when enabled, the discovery stubs. It is nil for
// the stdio transport.
func (g *Gateway) Handler() http.Handler {
	if g.opts.Transport == config.MCPTransportStdio {
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)

	if g.opts.DiscoveryStubs {
		registerDiscoveryRoutes(mux, g.opts.PublicURL)
	}

	switch g.opts.Transport {
	case config.MCPTransportStreamableHTTP:
		streamable := server.NewStreamableHTTPServer(g.mcpServer,
			server.WithEndpointPath(StreamableHTTPPath),
		)
		mux.Handle(StreamableHTTPPath, g.touchSessions(streamable))

	default:
		sse := server.NewSSEServer(g.mcpServer,
			server.WithSSEEndpoint(SSEPath),
			server.WithMessageEndpoint(MessagePath),
			server.WithUseFullURLForMessageEndpoint(false),
			server.WithKeepAlive(true),
			server.WithKeepAliveInterval(keepAliveInterval),
		)
		mux.Handle(SSEPath, sse.SSEHandler())
		// The advertised endpoint has no trailing slash; clients configured
		// with the /messages/ form still reach the same handler.
		mux.Handle(MessagePath, sse.MessageHandler())
		mux.Handle(MessagePath+"/", sse.MessageHandler())
	}

	return mux
}

// touchSessions marks the session named in each request as active. A GET
// listening stream on an initialized session keeps it busy for as long as
// the stream lasts.
func (g *Gateway) touchSessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(server.HeaderKeySessionID)
		switch {
		case id == "":
		case r.Method == http.MethodGet:
			ctx, release := g.sessions.track(r.Context(), id)
			defer release()
			r = r.WithContext(ctx)
		default:
			g.sessions.touch(id)
		}
		next.ServeHTTP(w, r)
	})
}

// expireIdleSessions unregisters sessions idle for longer than the TTL
// until ctx is done.
func (g *Gateway) expireIdleSessions(ctx context.Context, ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.closeIdleSessions(ctx, ttl)
		}
	}
}

func (g *Gateway) closeIdleSessions(ctx context.Context, ttl time.Duration) int {
	ids := g.sessions.idle(ttl)
	for _, id := range ids {
		logging.Info("Gateway", "Session %s idle for over %s, closing", logging.TruncateSessionID(id), ttl)
		g.mcpServer.UnregisterSession(ctx, id)
		g.sessions.close(id)
	}
	return len(ids)
}

// Endpoint describes where clients connect, for log lines and the CLI.
func (g *Gateway) Endpoint(addr string) string {
	switch g.opts.Transport {
	case config.MCPTransportStdio:
		return "stdio"
	case config.MCPTransportStreamableHTTP:
		return fmt.Sprintf("http://%s%s", addr, StreamableHTTPPath)
	default:
		return fmt.Sprintf("http://%s%s", addr, SSEPath)
	}
}

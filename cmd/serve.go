package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Sefaria/sefaria-mcp/internal/app"
	"github.com/Sefaria/sefaria-mcp/internal/config"
)

// serveOptions holds the serve flags. Only flags set on the command line
// override the configuration file and the environment.
type serveOptions struct {
	configPath  string
	debug       bool
	host        string
	port        int
	transport   string
	publicURL   string
	metricsPort int
	noMetrics   bool
	noDiscovery bool
	logFormat   string
	tracing     string

	sessionIdleTTL time.Duration
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Starts the MCP server and serves the Sefaria tools until interrupted.

Transports:
  sse              Server-Sent Events on /sse with messages posted to /messages (default)
  streamable-http  Streamable HTTP on /mcp
  stdio            JSON-RPC over standard input and output

The HTTP transports also serve /health and, unless --no-discovery is given,
the OAuth discovery documents under /.well-known/ announcing that no
authorization is required. Prometheus metrics are served on a separate
port; if that port is taken the server keeps running without metrics.

Configuration is layered: built-in defaults, then the file given with
--config, then environment variables (SEFARIA_API_BASE_URL,
SEFARIA_AI_BASE_URL, SEFARIA_MCP_PORT, ...), then command line flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	addServeFlags(cmd.Flags(), opts)
	return cmd
}

func addServeFlags(fs *pflag.FlagSet, opts *serveOptions) {
	fs.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML configuration file")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&opts.host, "host", config.DefaultHost, "Host to bind the transport to")
	fs.IntVarP(&opts.port, "port", "p", config.DefaultPort, "Port of the transport")
	fs.StringVarP(&opts.transport, "transport", "t", config.MCPTransportSSE,
		fmt.Sprintf("Transport: %s, %s or %s", config.MCPTransportSSE, config.MCPTransportStreamableHTTP, config.MCPTransportStdio))
	fs.StringVar(&opts.publicURL, "public-url", "", "Origin advertised by the discovery documents (derived from requests when empty)")
	fs.IntVar(&opts.metricsPort, "metrics-port", config.DefaultMetricsPort, "Port of the Prometheus metrics endpoint")
	fs.BoolVar(&opts.noMetrics, "no-metrics", false, "Do not serve the metrics endpoint")
	fs.BoolVar(&opts.noDiscovery, "no-discovery", false, "Do not serve the OAuth discovery documents")
	fs.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	fs.StringVar(&opts.tracing, "tracing", "none", "Span exporter: none or stdout")
	fs.DurationVar(&opts.sessionIdleTTL, "session-idle-ttl", config.DefaultSessionIdleTTL,
		"Close streamable-http sessions idle for this long (0 keeps them)")
}

// overrides returns the configuration overrides for the flags that were set
// explicitly in fs.
func (o *serveOptions) overrides(fs *pflag.FlagSet) func(*config.Config) {
	return func(c *config.Config) {
		if fs.Changed("host") {
			c.Server.Host = o.host
		}
		if fs.Changed("port") {
			c.Server.Port = o.port
		}
		if fs.Changed("transport") {
			c.Server.Transport = o.transport
		}
		if fs.Changed("public-url") {
			c.Server.PublicURL = o.publicURL
		}
		if fs.Changed("metrics-port") {
			c.Metrics.Port = o.metricsPort
		}
		if o.noMetrics {
			c.Metrics.Enabled = false
		}
		if o.noDiscovery {
			c.Server.DiscoveryStubs = false
		}
		if fs.Changed("log-format") {
			c.Logging.Format = o.logFormat
		}
		if o.debug {
			c.Logging.Level = "debug"
		}
		if fs.Changed("tracing") {
			c.Tracing.Exporter = o.tracing
		}
		if fs.Changed("session-idle-ttl") {
			c.Server.SessionIdleTTL = o.sessionIdleTTL
		}
	}
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfg := app.NewConfig(opts.debug, opts.configPath, GetVersion())
	cfg.Overrides = opts.overrides(cmd.Flags())

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

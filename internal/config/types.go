package config

import "time"

// Config is the top-level configuration structure for sefaria-mcp.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

const (
	// MCPTransportStreamableHTTP is the streamable HTTP transport.
	MCPTransportStreamableHTTP = "streamable-http"
	// MCPTransportSSE is the Server-Sent Events transport.
	MCPTransportSSE = "sse"
	// MCPTransportStdio is the standard I/O transport.
	MCPTransportStdio = "stdio"
)

// ServerConfig defines the session transport.
type ServerConfig struct {
	Host      string `yaml:"host,omitempty"`      // Host to bind to (default: 0.0.0.0)
	Port      int    `yaml:"port,omitempty"`      // Port for the session transport (default: 8088)
	Transport string `yaml:"transport,omitempty"` // Transport to use (default: sse)

	// PublicURL is the externally visible origin advertised by the discovery
	// stubs. When empty the origin is derived from each request.
	PublicURL string `yaml:"publicURL,omitempty"`

	// DiscoveryStubs serves the /.well-known no-auth documents.
	DiscoveryStubs bool `yaml:"discoveryStubs"`

	// ShutdownTimeout bounds graceful shutdown of the transport.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout,omitempty"`

	// SessionIdleTTL expires streamable-http sessions with no traffic.
	// Zero disables expiry.
	SessionIdleTTL time.Duration `yaml:"sessionIdleTTL,omitempty"`
}

// MetricsConfig defines the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// UpstreamConfig defines how the Sefaria APIs are reached.
type UpstreamConfig struct {
	APIBaseURL string        `yaml:"apiBaseURL,omitempty"`
	AIBaseURL  string        `yaml:"aiBaseURL,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	UserAgent  string        `yaml:"userAgent,omitempty"`

	// MaxImageBytes is the size above which manuscript images are downscaled.
	MaxImageBytes int `yaml:"maxImageBytes,omitempty"`
}

// LoggingConfig defines log output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text or json
}

// TracingConfig defines span export.
type TracingConfig struct {
	Exporter string `yaml:"exporter,omitempty"` // none or stdout
}

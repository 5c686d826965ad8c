package config

import "time"

const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8088
	DefaultMetricsPort     = 9090
	DefaultShutdownTimeout = 5 * time.Second
	DefaultSessionIdleTTL  = 30 * time.Minute

	DefaultAPIBaseURL      = "https://www.sefaria.org"
	DefaultAIBaseURL       = "https://ai.sefaria.org"
	DefaultUpstreamTimeout = 30 * time.Second
	DefaultUserAgent       = "sefaria-mcp"

	// DefaultMaxImageBytes is 1 MiB.
	DefaultMaxImageBytes = 1024 * 1024
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			Transport:       MCPTransportSSE,
			DiscoveryStubs:  true,
			ShutdownTimeout: DefaultShutdownTimeout,
			SessionIdleTTL:  DefaultSessionIdleTTL,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Host:    DefaultHost,
			Port:    DefaultMetricsPort,
		},
		Upstream: UpstreamConfig{
			APIBaseURL:    DefaultAPIBaseURL,
			AIBaseURL:     DefaultAIBaseURL,
			Timeout:       DefaultUpstreamTimeout,
			UserAgent:     DefaultUserAgent,
			MaxImageBytes: DefaultMaxImageBytes,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Exporter: "none",
		},
	}
}

package app

import (
	"io"

	"github.com/Sefaria/sefaria-mcp/internal/config"
	"github.com/Sefaria/sefaria-mcp/internal/gateway"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of logging.level
	Debug bool

	// Custom configuration file (optional)
	ConfigPath string

	// Version is reported in the MCP initialize response and trace resource.
	Version string

	// Overrides is applied to the loaded configuration before validation.
	// Command line flags use it.
	Overrides func(*config.Config)

	// SefariaConfig, when set, is used as is instead of loading the file and
	// the environment.
	SefariaConfig *config.Config

	// LogOutput receives log lines; nil means stderr, which keeps stdout
	// free for the stdio transport.
	LogOutput io.Writer

	// Stdio overrides the streams of the stdio transport.
	Stdio *gateway.StdioStreams
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, version string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
		Version:    version,
	}
}

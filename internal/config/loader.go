package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Sefaria/sefaria-mcp/pkg/logging"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvAPIBaseURL      = "SEFARIA_API_BASE_URL"
	EnvAIBaseURL       = "SEFARIA_AI_BASE_URL"
	EnvHavrutaHost     = "VIRTUAL_HAVRUTA_HTTP_SERVICE_HOST"
	EnvHavrutaPort     = "VIRTUAL_HAVRUTA_HTTP_SERVICE_PORT"
	EnvHost            = "SEFARIA_MCP_HOST"
	EnvPort            = "SEFARIA_MCP_PORT"
	EnvTransport       = "SEFARIA_MCP_TRANSPORT"
	EnvMetricsPort     = "SEFARIA_MCP_METRICS_PORT"
	EnvLogLevel        = "SEFARIA_MCP_LOG_LEVEL"
	EnvPublicURL       = "SEFARIA_MCP_PUBLIC_URL"
	EnvTracingExporter = "SEFARIA_MCP_TRACING_EXPORTER"
)

// LoadConfig builds the effective configuration: defaults, then the YAML
// file at path (if path is set and the file exists), then the process
// environment, then overrides in order. The result is validated.
func LoadConfig(path string, overrides ...func(*Config)) (Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	for _, override := range overrides {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	config := GetDefaultConfig() // Start with default config
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "No config file found at %s, using defaults", path)
			return config, nil
		}
		return Config{}, fmt.Errorf("error reading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		// config malformed
		return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	logging.Info("Config", "Loaded configuration from %s", path)
	return config, nil
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with environment variables. When both Virtual
// Havruta service variables are set they take precedence over
// SEFARIA_AI_BASE_URL, matching how the service is deployed in-cluster.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return "", false
		}
		return v, true
	}

	if v, ok := get(EnvAPIBaseURL); ok {
		cfg.Upstream.APIBaseURL = v
	}

	havrutaHost, hostOK := get(EnvHavrutaHost)
	havrutaPort, portOK := get(EnvHavrutaPort)
	if hostOK && portOK {
		cfg.Upstream.AIBaseURL = fmt.Sprintf("http://%s:%s", havrutaHost, havrutaPort)
	} else if v, ok := get(EnvAIBaseURL); ok {
		cfg.Upstream.AIBaseURL = v
	}

	if v, ok := get(EnvHost); ok {
		cfg.Server.Host = v
	}
	if v, ok := get(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := get(EnvTransport); ok {
		cfg.Server.Transport = v
	}
	if v, ok := get(EnvPublicURL); ok {
		cfg.Server.PublicURL = v
	}
	if v, ok := get(EnvMetricsPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMetricsPort, v, err)
		}
		cfg.Metrics.Port = port
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.Logging.Level = v
	}
	if v, ok := get(EnvTracingExporter); ok {
		cfg.Tracing.Exporter = v
	}
	return nil
}

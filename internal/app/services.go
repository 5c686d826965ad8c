package app

import (
	"context"
	"fmt"

	"github.com/Sefaria/sefaria-mcp/internal/api"
	"github.com/Sefaria/sefaria-mcp/internal/config"
	"github.com/Sefaria/sefaria-mcp/internal/gateway"
	"github.com/Sefaria/sefaria-mcp/internal/metrics"
	"github.com/Sefaria/sefaria-mcp/internal/sefaria"
	"github.com/Sefaria/sefaria-mcp/internal/telemetry"
	"github.com/Sefaria/sefaria-mcp/internal/tools"
	"github.com/Sefaria/sefaria-mcp/pkg/logging"
)

// ServerName is the MCP server name announced in the initialize response.
const ServerName = "Sefaria MCP"

// Services holds everything the gateway needs at runtime. They are built
// in dependency order by InitializeServices:
//  1. Metrics state and tracer (shared by every invocation)
//  2. Sefaria client and the tool catalog bound to it
//  3. Registry, frozen when the gateway is created
//  4. Gateway
type Services struct {
	Config config.Config

	Metrics *metrics.State
	Tracing *telemetry.Provider

	Client   *sefaria.Client
	Catalog  *tools.Catalog
	Registry *gateway.Registry
	Gateway  *gateway.Gateway

	// stdio, when set, replaces the process streams of the stdio transport.
	stdio *gateway.StdioStreams
}

// InitializeServices creates every service from cfg. A configuration or
// registration problem is fatal.
func InitializeServices(cfg *Config) (*Services, error) {
	if cfg.SefariaConfig == nil {
		return nil, &api.ConfigError{Field: "config", Reason: "not loaded"}
	}
	sc := *cfg.SefariaConfig
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	state := metrics.New()

	tracing, err := telemetry.Setup(context.Background(), telemetry.Config{
		Exporter:       sc.Tracing.Exporter,
		ServiceName:    "sefaria-mcp",
		ServiceVersion: cfg.Version,
		Output:         cfg.LogOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	client := sefaria.NewClient(
		sefaria.WithAPIBaseURL(sc.Upstream.APIBaseURL),
		sefaria.WithAIBaseURL(sc.Upstream.AIBaseURL),
		sefaria.WithTimeout(sc.Upstream.Timeout),
		sefaria.WithUserAgent(userAgent(sc.Upstream.UserAgent, cfg.Version)),
		sefaria.WithMaxImageBytes(sc.Upstream.MaxImageBytes),
	)
	logging.Debug("Services", "Sefaria API at %s, AI service at %s", client.APIBaseURL(), client.AIBaseURL())

	catalog := tools.NewCatalog(client, nil)
	registry := gateway.NewRegistry()
	if err := registry.RegisterAll(catalog.Descriptors()); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	logging.Info("Services", "Registered %d tools", registry.Len())

	gw, err := gateway.New(gateway.Options{
		Name:           ServerName,
		Version:        cfg.Version,
		Instructions:   tools.Instructions,
		Transport:      sc.Transport(),
		Host:           sc.Server.Host,
		Port:           sc.Server.Port,
		PublicURL:      sc.Server.PublicURL,
		DiscoveryStubs: sc.Server.DiscoveryStubs,
		SessionIdleTTL: sc.Server.SessionIdleTTL,
	}, registry, state, tracing.Tracer)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	return &Services{
		Config:   sc,
		Metrics:  state,
		Tracing:  tracing,
		Client:   client,
		Catalog:  catalog,
		Registry: registry,
		Gateway:  gw,
		stdio:    cfg.Stdio,
	}, nil
}

// userAgent appends the version to the configured user agent, so upstream
// logs tell releases apart.
func userAgent(base, version string) string {
	if base == "" || version == "" || version == "dev" {
		return base
	}
	return base + "/" + version
}

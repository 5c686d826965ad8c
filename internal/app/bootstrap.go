package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Sefaria/sefaria-mcp/internal/config"
	"github.com/Sefaria/sefaria-mcp/pkg/logging"
)

// Application bootstraps and runs the gateway.
//
// Initialization has two phases:
//  1. Bootstrap: load configuration, initialize logging, build services
//  2. Execution: serve the transport until a signal arrives
type Application struct {
	config   *Config
	services *Services
}

// NewApplication loads the configuration and builds every service.
//
// Configuration is layered: defaults, then the YAML file at cfg.ConfigPath
// (when set), then the environment, then cfg.Overrides. The result is
// validated and every problem is reported at once.
func NewApplication(cfg *Config) (*Application, error) {
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}

	var logOutput io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}
	logging.InitForCLI(appLogLevel, logOutput)

	if cfg.SefariaConfig == nil {
		loaded, err := loadConfig(cfg)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration")
			return nil, err
		}
		cfg.SefariaConfig = &loaded
	}

	// Switch to the configured level and format now that they are known.
	level := logging.ParseLevel(cfg.SefariaConfig.Logging.Level)
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.Init(level, cfg.SefariaConfig.Logging.Format, logOutput)

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

func loadConfig(cfg *Config) (config.Config, error) {
	var overrides []func(*config.Config)
	if cfg.Overrides != nil {
		overrides = append(overrides, cfg.Overrides)
	}
	loaded, err := config.LoadConfig(cfg.ConfigPath, overrides...)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	return loaded, nil
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Run serves the transport until ctx is cancelled, SIGINT or SIGTERM
// arrives, or a stdio client closes its input.
func (a *Application) Run(ctx context.Context) error {
	return runServer(ctx, a.services)
}

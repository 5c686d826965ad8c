package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"github.com/Sefaria/sefaria-mcp/internal/config"
	"github.com/Sefaria/sefaria-mcp/internal/metrics"
	"github.com/Sefaria/sefaria-mcp/pkg/logging"
)

// runServer serves the gateway in the foreground.
//
// Behavior:
//   - Starts the metrics endpoint (best effort: a bind failure only warns)
//   - Binds the session transport; a bind failure is fatal
//   - Notifies systemd that the service is ready (no-op outside systemd)
//   - Blocks until SIGINT, SIGTERM, ctx cancellation or, for stdio, EOF
//   - Shuts the transport, metrics endpoint and tracer down in parallel
func runServer(ctx context.Context, services *Services) error {
	cfg := services.Config

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.StartBestEffort(cfg.MetricsAddr(), services.Metrics)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	if services.stdio != nil {
		err = services.Gateway.StartStdio(ctx, *services.stdio)
	} else {
		err = services.Gateway.Start(ctx)
	}
	if err != nil {
		logging.Error("Server", err, "Failed to start transport")
		shutdown(cfg, services, metricsServer, false)
		return err
	}

	if addr := services.Gateway.Addr(); addr != "" {
		logging.Info("Server", "MCP endpoint: %s", services.Gateway.Endpoint(addr))
	}
	notifySystemd(daemon.SdNotifyReady)

	done := make(chan error, 1)
	go func() { done <- services.Gateway.Wait() }()

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info("Server", "Shutting down")
	case serveErr = <-done:
		if serveErr != nil {
			logging.Error("Server", serveErr, "Transport stopped unexpectedly")
		} else {
			logging.Info("Server", "Transport closed, shutting down")
		}
	}

	notifySystemd(daemon.SdNotifyStopping)
	if err := shutdown(cfg, services, metricsServer, true); err != nil && serveErr == nil {
		return err
	}
	return serveErr
}

// shutdown stops every running component, each bounded by the configured
// shutdown timeout, and returns the first error.
func shutdown(cfg config.Config, services *Services, metricsServer *metrics.Server, transportStarted bool) error {
	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var g errgroup.Group
	if transportStarted {
		g.Go(func() error { return services.Gateway.Stop(ctx) })
	}
	if metricsServer != nil {
		g.Go(func() error { return metricsServer.Shutdown(ctx) })
	}
	g.Go(func() error { return services.Tracing.Shutdown(ctx) })

	if err := g.Wait(); err != nil {
		logging.Error("Server", err, "Error during shutdown")
		return err
	}
	logging.Info("Server", "Shutdown complete")
	return nil
}

func notifySystemd(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logging.Warn("Server", "Failed to notify systemd: %v", err)
		return
	}
	if sent {
		logging.Debug("Server", "Notified systemd: %s", state)
	}
}

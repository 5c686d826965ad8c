// Package app wires configuration, the Sefaria client, the tool catalog,
// metrics, tracing and the MCP gateway into one runnable application.
//
// There is a single composition path. NewApplication loads the layered
// configuration (defaults, optional YAML file, environment, command line
// overrides), initializes logging and builds Services in dependency order.
// Run then serves the configured transport in the foreground:
//
//	cfg := app.NewConfig(false, "/etc/sefaria-mcp/config.yaml", version)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("bootstrap failed: %w", err)
//	}
//	return application.Run(ctx)
//
// # Lifecycle
//
// The metrics endpoint is started first and is best effort: when its port
// cannot be bound a warning is logged and the server runs without it. The
// session transport is bound next; failing to bind it is fatal. Once the
// transport is up, systemd is notified (a no-op when the process is not
// supervised by systemd).
//
// Run returns after SIGINT or SIGTERM, when its context is cancelled, or
// when a stdio client closes its input. The transport, the metrics endpoint
// and the tracer are then shut down concurrently, bounded by
// server.shutdownTimeout.
//
// # Logging
//
// Logs go to stderr by default so that stdout stays the protocol channel of
// the stdio transport.
package app

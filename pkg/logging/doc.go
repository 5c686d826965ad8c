// Package logging provides the structured logger used across sefaria-mcp.
//
// It is a thin layer over the standard slog package that tags every entry
// with a subsystem name:
//
//	logging.Init(logging.LevelInfo, logging.FormatJSON, os.Stderr)
//
//	logging.Info("Bootstrap", "Listening on %s", addr)
//	logging.Warn("Metrics", "Metrics endpoint disabled: %v", err)
//	logging.Error("Gateway", err, "Tool %s failed", name)
//
// # Subsystems
//
//   - Bootstrap: process startup and shutdown
//   - Config: configuration loading and validation
//   - Gateway: registry, transport and session lifecycle
//   - Tool: per-invocation lines (bound to tool name and invocation id)
//   - Metrics: metrics endpoint
//   - Sefaria: upstream API client
//
// # Bound loggers
//
// For returns a Logger carrying fixed attributes. The gateway hands one to
// every operation so all lines emitted for a single call share the same
// tool and invocation_id fields:
//
//	log := logging.For("Tool").With("tool", "get_text").With("invocation_id", id)
//	log.Debug("called with reference=%q", ref)
//
// # Output
//
// Text output is the default. JSON output is intended for log shippers.
// When the stdio transport is used, logs must go to stderr because stdout
// carries the protocol.
//
// The logger is safe for concurrent use.
package logging

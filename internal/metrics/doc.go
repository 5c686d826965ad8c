// Package metrics owns the process-wide MetricsState of the gateway and the
// endpoint that exposes it.
//
// State is built explicitly with New and injected into the gateway; there is
// no package-level registry. All collectors are Prometheus vectors, so
// concurrent updates from many invocations need no locking.
//
// The metrics Server listens on its own address. Failing to bind it is never
// fatal: StartBestEffort logs a warning and the session transport starts
// anyway.
package metrics

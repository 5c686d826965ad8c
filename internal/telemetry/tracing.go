// Package telemetry configures OpenTelemetry tracing for tool invocations.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope used by the gateway.
const TracerName = "github.com/Sefaria/sefaria-mcp/internal/gateway"

// Exporters understood by Setup.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Config selects how spans are exported.
type Config struct {
	Exporter       string
	ServiceName    string
	ServiceVersion string

	// Output receives stdout-exported spans; defaults to os.Stderr so it
	// never interferes with the stdio transport.
	Output io.Writer
}

// Provider bundles a tracer with the function that flushes and stops it.
type Provider struct {
	Tracer   trace.Tracer
	shutdown func(context.Context) error
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.shutdown == nil {
		return nil
	}
	return p.shutdown(ctx)
}

// Noop returns a provider whose spans are discarded.
func Noop() *Provider {
	return &Provider{Tracer: noop.NewTracerProvider().Tracer(TracerName)}
}

// Setup builds a tracer provider for cfg and installs it globally.
func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	switch cfg.Exporter {
	case "", ExporterNone:
		return Noop(), nil
	case ExporterStdout:
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", cfg.Exporter)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return &Provider{Tracer: tp.Tracer(TracerName), shutdown: tp.Shutdown}, nil
}

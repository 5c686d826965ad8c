package gateway

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sefaria/sefaria-mcp/internal/api"
	"github.com/Sefaria/sefaria-mcp/internal/metrics"
	"github.com/Sefaria/sefaria-mcp/internal/normalize"
	"github.com/Sefaria/sefaria-mcp/internal/telemetry"
	"github.com/Sefaria/sefaria-mcp/pkg/logging"
)

// invocation is the ephemeral record of one tool call. It lives only for
// the duration of Invoke.
type invocation struct {
	id            string
	tool          string
	args          map[string]interface{}
	start         time.Time
	end           time.Time
	responseBytes int
	err           error
}

func (inv *invocation) status() metrics.Status {
	if inv.err != nil {
		return metrics.StatusError
	}
	return metrics.StatusSuccess
}

// Instrumenter brackets every tool call with logging, timing, payload
// accounting, counters and a trace span. It never changes what the
// operation returns.
type Instrumenter struct {
	metrics *metrics.State
	tracer  trace.Tracer
	now     func() time.Time
}

// NewInstrumenter creates an Instrumenter. A nil tracer disables spans.
func NewInstrumenter(state *metrics.State, tracer trace.Tracer) *Instrumenter {
	if tracer == nil {
		tracer = telemetry.Noop().Tracer
	}
	return &Instrumenter{metrics: state, tracer: tracer, now: time.Now}
}

// Invoke validates rawArgs, runs the tool's operation and normalizes its
// result. Operation errors are returned unchanged; a panic becomes an
// *api.PanicError. Metrics are recorded on every exit path, except when ctx
// is already done by the time the operation returns: such calls count as
// abandoned and their duration, size and status are not observed.
func (in *Instrumenter) Invoke(ctx context.Context, tool *Tool, rawArgs map[string]interface{}) (payload normalize.Payload, err error) {
	inv := &invocation{
		id:   uuid.New().String(),
		tool: tool.Name(),
		args: rawArgs,
	}
	log := logging.For("Tool").With("tool", inv.tool).With("invocation_id", inv.id)

	log.Debug("called with %s", redactArgs(inv.args))

	ctx, span := in.tracer.Start(ctx, "tools/call "+inv.tool,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("mcp.tool.name", inv.tool),
			attribute.String("mcp.invocation.id", inv.id),
		),
	)
	defer span.End()

	inv.start = in.now()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error(fmt.Errorf("%v", rec), "operation panicked\n%s", debug.Stack())
			err = &api.PanicError{Tool: inv.tool, Value: rec}
			payload = normalize.Payload{}
		}
		inv.end = in.now()
		inv.err = err
		if err != nil {
			inv.responseBytes = len(err.Error())
		} else {
			inv.responseBytes = payload.Size
		}
		in.record(ctx, span, log, inv)
	}()

	args, err := tool.validator.apply(rawArgs)
	if err != nil {
		return normalize.Payload{}, err
	}

	result, err := tool.Descriptor.Operation(ctx, log, args)
	if err != nil {
		return normalize.Payload{}, err
	}
	payload = normalize.Normalize(result)
	if payload.Degraded {
		log.Warn("result could not be encoded as JSON, sending its string form")
		span.SetAttributes(attribute.Bool("mcp.response.degraded", true))
	}
	return payload, nil
}

func (in *Instrumenter) record(ctx context.Context, span trace.Span, log *logging.Logger, inv *invocation) {
	duration := inv.end.Sub(inv.start)

	if ctx.Err() != nil {
		in.metrics.CallAbandoned(inv.tool)
		span.SetStatus(codes.Error, "caller went away")
		log.Warn("caller went away after %s, result discarded", duration)
		return
	}

	in.metrics.ObserveCall(inv.tool, inv.status(), duration, inv.responseBytes)
	span.SetAttributes(attribute.Int("mcp.response.bytes", inv.responseBytes))

	if inv.err != nil {
		kind := api.KindOf(inv.err)
		in.metrics.ObserveError(inv.tool, string(kind))
		span.RecordError(inv.err)
		span.SetStatus(codes.Error, string(kind))
		span.SetAttributes(attribute.String("mcp.error.kind", string(kind)))
		log.Error(inv.err, "failed after %s (%s)", duration, kind)
		return
	}

	span.SetStatus(codes.Ok, "")
	log.Info("response size: %d bytes (%s)", inv.responseBytes, duration)
}

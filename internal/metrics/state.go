package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "sefaria_mcp"

// Status is the outcome label of a tool call.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

var (
	durationBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
	// 256 B up to 4 MiB.
	sizeBuckets = prometheus.ExponentialBuckets(256, 4, 8)
)

// State holds every collector the gateway updates. It is created once per
// process and handed to the gateway; nothing in it is ever reset.
type State struct {
	registry *prometheus.Registry

	calls          *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	responseBytes  *prometheus.HistogramVec
	errors         *prometheus.CounterVec
	abandoned      *prometheus.CounterVec
	unknownTools   prometheus.Counter
	activeSessions prometheus.Gauge
}

// Option customizes New.
type Option func(*options)

type options struct {
	runtimeCollectors bool
}

// WithoutRuntimeCollectors skips the Go runtime and process collectors.
// Tests use it to keep the exposition small.
func WithoutRuntimeCollectors() Option {
	return func(o *options) { o.runtimeCollectors = false }
}

// New creates a State backed by its own registry.
func New(opts ...Option) *State {
	o := options{runtimeCollectors: true}
	for _, opt := range opts {
		opt(&o)
	}

	reg := prometheus.NewRegistry()
	s := &State{
		registry: reg,
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and outcome.",
		}, []string{"tool", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Wall-clock duration of tool invocations.",
			Buckets:   durationBuckets,
		}, []string{"tool"}),
		responseBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_response_bytes",
			Help:      "Size of normalized tool responses in bytes.",
			Buckets:   sizeBuckets,
		}, []string{"tool"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_errors_total",
			Help:      "Failed tool invocations by tool and error kind.",
		}, []string{"tool", "error_kind"}),
		abandoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_abandoned_total",
			Help:      "Tool invocations whose caller went away before completion.",
		}, []string{"tool"}),
		unknownTools: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_tool_calls_total",
			Help:      "Calls naming a tool that is not registered.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Currently connected client sessions.",
		}),
	}

	reg.MustRegister(
		s.calls,
		s.duration,
		s.responseBytes,
		s.errors,
		s.abandoned,
		s.unknownTools,
		s.activeSessions,
	)
	if o.runtimeCollectors {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return s
}

// Registry exposes the underlying registry.
func (s *State) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the Prometheus text exposition format.
func (s *State) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// ObserveCall records one completed invocation.
func (s *State) ObserveCall(tool string, status Status, d time.Duration, responseBytes int) {
	s.calls.WithLabelValues(tool, string(status)).Inc()
	s.duration.WithLabelValues(tool).Observe(d.Seconds())
	s.responseBytes.WithLabelValues(tool).Observe(float64(responseBytes))
}

// ObserveError counts a failure of the given kind.
func (s *State) ObserveError(tool, kind string) {
	s.errors.WithLabelValues(tool, kind).Inc()
}

// CallAbandoned counts an invocation whose caller disconnected.
func (s *State) CallAbandoned(tool string) {
	s.abandoned.WithLabelValues(tool).Inc()
}

// UnknownTool counts a call for an unregistered tool.
func (s *State) UnknownTool() {
	s.unknownTools.Inc()
}

func (s *State) SessionOpened() { s.activeSessions.Inc() }
func (s *State) SessionClosed() { s.activeSessions.Dec() }

// The readers below return current values for tests and session log lines;
// scrapes go through Handler.

func (s *State) CallCount(tool string, status Status) float64 {
	return counterValue(s.calls.WithLabelValues(tool, string(status)))
}

func (s *State) ErrorCount(tool, kind string) float64 {
	return counterValue(s.errors.WithLabelValues(tool, kind))
}

func (s *State) AbandonedCount(tool string) float64 {
	return counterValue(s.abandoned.WithLabelValues(tool))
}

func (s *State) UnknownToolCount() float64 {
	return counterValue(s.unknownTools)
}

func (s *State) ActiveSessions() float64 {
	m := &dto.Metric{}
	if err := s.activeSessions.Write(m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

// DurationSampleCount returns how many durations were observed for tool.
func (s *State) DurationSampleCount(tool string) uint64 {
	return histogramCount(s.duration.WithLabelValues(tool))
}

// ResponseSizeSum returns the total bytes observed for tool.
func (s *State) ResponseSizeSum(tool string) float64 {
	m := &dto.Metric{}
	h, ok := s.responseBytes.WithLabelValues(tool).(prometheus.Metric)
	if !ok || h.Write(m) != nil {
		return 0
	}
	return m.GetHistogram().GetSampleSum()
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func histogramCount(o prometheus.Observer) uint64 {
	h, ok := o.(prometheus.Metric)
	if !ok {
		return 0
	}
	m := &dto.Metric{}
	if err := h.Write(m); err != nil {
		return 0
	}
	return m.GetHistogram().GetSampleCount()
}

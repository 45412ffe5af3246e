// Package metrics holds the Prometheus collectors for tool calls and
// runner processes. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK         = "ok"
	OutcomeError      = "error"
	OutcomeExitError  = "exit_error"
	OutcomeTimeout    = "timeout"
	OutcomeSpawnError = "spawn_error"
)

// Metrics owns a private registry so that multiple servers (and tests) do
// not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls       *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
	processDuration *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortcuts_tool_calls_total",
				Help: "Total number of tool calls by outcome.",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shortcuts_tool_call_duration_seconds",
				Help:    "Tool call duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		processDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shortcuts_process_duration_seconds",
				Help:    "Runner process duration in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"command", "outcome"},
		),
	}

	m.registry.MustRegister(
		m.toolCalls,
		m.toolDuration,
		m.processDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveToolCall records a dispatched tool call.
func (m *Metrics) ObserveToolCall(tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveProcess records a runner process invocation.
func (m *Metrics) ObserveProcess(command, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.processDuration.WithLabelValues(command, outcome).Observe(d.Seconds())
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Package metrics exposes Prometheus counters and gauges for the
// monitor: emitted signals, poll cycles, active workers and notification
// failures, served at /metrics in the text exposition format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the monitor's instruments over one registry, so tests
// and multiple supervisors never fight over global collector state.
type Metrics struct {
	registry *prometheus.Registry

	// SignalsTotal counts emitted signals by symbol, direction and tier.
	SignalsTotal *prometheus.CounterVec
	// PollCycles counts live poll iterations by symbol and result
	// (ok | error).
	PollCycles *prometheus.CounterVec
	// ActiveMonitors tracks the number of running symbol workers.
	ActiveMonitors prometheus.Gauge
	// NotifyFailures counts failed alert deliveries.
	NotifyFailures prometheus.Counter
}

// New creates a metrics bundle with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		SignalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tmonitor_signals_total",
				Help: "Signals emitted",
			},
			[]string{"symbol", "type", "tier"},
		),
		PollCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tmonitor_poll_cycles_total",
				Help: "Live poll iterations by result",
			},
			[]string{"symbol", "result"},
		),
		ActiveMonitors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tmonitor_active_monitors",
				Help: "Running symbol workers",
			},
		),
		NotifyFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tmonitor_notify_failures_total",
				Help: "Failed alert deliveries",
			},
		),
	}

	registry.MustRegister(m.SignalsTotal, m.PollCycles, m.ActiveMonitors, m.NotifyFailures)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

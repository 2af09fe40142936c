// Package metrics exposes Prometheus counters for the order workflow.
package metrics

import (
	"context"
	"net/http"

	"tradeflow/internal/core/domain/model/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	transitions     *prometheus.CounterVec
	reactorFailures *prometheus.CounterVec
	webhooks        *prometheus.CounterVec
}

// New registers the workflow counters plus Go and process collectors on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_transitions_total",
				Help: "Committed order status transitions",
			},
			[]string{"from", "to"},
		),
		reactorFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_reactor_failures_total",
				Help: "Reactor errors and panics after a committed transition",
			},
			[]string{"event", "reactor"},
		),
		webhooks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_webhooks_total",
				Help: "Payment webhook deliveries by outcome",
			},
			[]string{"provider", "outcome"},
		),
	}
}

// Handle counts order.status_changed events.
func (m *Metrics) Handle(_ context.Context, ev events.Event) error {
	if ev.Kind == events.OrderStatusChanged {
		m.transitions.WithLabelValues(ev.From.String(), ev.To.String()).Inc()
	}
	return nil
}

func (m *Metrics) ObserveFailure(failure events.Failure) {
	m.reactorFailures.WithLabelValues(string(failure.Kind), failure.Reactor).Inc()
}

func (m *Metrics) ObserveWebhook(provider, outcome string) {
	m.webhooks.WithLabelValues(provider, outcome).Inc()
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

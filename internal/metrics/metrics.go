// Package metrics exports snack queue activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/provider"
)

const namespace = "snackbar"

// Metrics implements provider.Observer on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	Enqueued *prometheus.CounterVec
	Rejected *prometheus.CounterVec
	Closed   *prometheus.CounterVec
	Active   prometheus.Gauge
	Pending  prometheus.Gauge
}

var _ provider.Observer = (*Metrics)(nil)

// New creates and registers the snack metrics plus the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Enqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snacks_enqueued_total",
				Help:      "Snacks accepted into the queue.",
			},
			[]string{"variant"},
		),
		Rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snacks_rejected_total",
				Help:      "Snacks refused by the queue.",
			},
			[]string{"reason"},
		),
		Closed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snacks_closed_total",
				Help:      "Snacks that started closing.",
			},
			[]string{"reason"},
		),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snacks_active",
			Help:      "Snacks currently on screen.",
		}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snacks_pending",
			Help:      "Snacks waiting for a free slot.",
		}),
	}

	m.registry.MustRegister(
		m.Enqueued, m.Rejected, m.Closed, m.Active, m.Pending,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SnackEnqueued(variant model.Variant) {
	m.Enqueued.WithLabelValues(string(variant)).Inc()
}

func (m *Metrics) SnackRejected(reason string) {
	m.Rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) SnackClosed(reason model.CloseReason) {
	m.Closed.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) QueueDepth(active, pending int) {
	m.Active.Set(float64(active))
	m.Pending.Set(float64(pending))
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the assistant's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RouteDecisions       *prometheus.CounterVec
	Responses            *prometheus.CounterVec
	CollaboratorDuration *prometheus.HistogramVec
	Ingestions           *prometheus.CounterVec
	IndexChunks          prometheus.Gauge
}

// New registers all collectors plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RouteDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_route_decisions_total",
			Help: "Routing decisions by resolved intent and deciding stage.",
		}, []string{"intent", "stage"}),
		Responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_responses_total",
			Help: "Assembled responses by reported intent and source label.",
		}, []string{"intent", "source"}),
		CollaboratorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assistant_collaborator_duration_seconds",
			Help:    "Latency of external collaborator calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}, []string{"collaborator", "outcome"}),
		Ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_ingestions_total",
			Help: "Document ingestions by outcome.",
		}, []string{"outcome"}),
		IndexChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "assistant_index_chunks",
			Help: "Number of chunks in the current semantic index.",
		}),
	}

	m.registry.MustRegister(
		m.RouteDecisions,
		m.Responses,
		m.CollaboratorDuration,
		m.Ingestions,
		m.IndexChunks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRoute(intent, stage string) {
	m.RouteDecisions.WithLabelValues(intent, stage).Inc()
}

func (m *Metrics) ObserveResponse(intent, source string) {
	m.Responses.WithLabelValues(intent, source).Inc()
}

func (m *Metrics) ObserveCollaborator(collaborator, outcome string, d time.Duration) {
	m.CollaboratorDuration.WithLabelValues(collaborator, outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveIngestion(outcome string) {
	m.Ingestions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetIndexChunks(n int) {
	m.IndexChunks.Set(float64(n))
}

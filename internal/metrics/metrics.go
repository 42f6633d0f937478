// Package metrics defines the Prometheus collectors for the HTTP surface and
// the ingestion pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeCreated   = "created"
	OutcomeReplaced  = "replaced"
	OutcomeInvalid   = "invalid"
	OutcomeMalformed = "malformed"
	OutcomeConflict  = "conflict"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RecordsIngested     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on a private registry so that several
// instances can coexist in one process.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		RecordsIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trial_records_ingested_total",
				Help: "Trial record documents processed by outcome.",
			},
			[]string{"outcome"},
		),
		gatherer: registry,
	}

	registry.MustRegister(m.HTTPRequestsTotal, m.HTTPRequestDuration, m.RecordsIngested)

	return m
}

func (m *Metrics) ObserveIngest(outcome string) {
	m.RecordsIngested.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

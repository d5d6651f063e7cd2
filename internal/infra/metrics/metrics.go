// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"signup/internal/domain/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry      *prometheus.Registry
	registrations *prometheus.CounterVec
	hashDuration  prometheus.Histogram
}

var _ service.RegistrationMetrics = (*Metrics)(nil)

// New creates the registry with the Go and process collectors and the registration metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signup_registrations_total",
				Help: "Total number of registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		hashDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "signup_password_hash_duration_seconds",
				Help:    "Time spent hashing passwords, including the wait for a hashing slot",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.registrations,
		m.hashDuration,
	)

	for _, outcome := range []string{
		service.OutcomeCreated,
		service.OutcomeInvalid,
		service.OutcomeConflict,
		service.OutcomeError,
	} {
		m.registrations.WithLabelValues(outcome)
	}

	return m
}

// RecordRegistration increments the counter for outcome (use service.Outcome* constants).
func (m *Metrics) RecordRegistration(outcome string) {
	m.registrations.WithLabelValues(outcome).Inc()
}

// ObserveHashDuration records one Hash call.
func (m *Metrics) ObserveHashDuration(d time.Duration) {
	m.hashDuration.Observe(d.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Package metrics define los contadores Prometheus del servicio y el handler de /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/costtrack-api/internal/application/usecase"
)

var _ usecase.MutationRecorder = (*Metrics)(nil)

const namespace = "costtrack"

// Metrics agrupa los collectors registrados en un registry propio.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	AuthFailuresTotal    *prometheus.CounterVec
	AuthzDenialsTotal    *prometheus.CounterVec
	RecordMutationsTotal *prometheus.CounterVec
}

// New crea y registra los collectors. Con registry nil se usa uno nuevo con métricas de proceso y Go.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total de requests HTTP por método, ruta y status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duración de los requests HTTP.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Fallos de autenticación por causa.",
			},
			[]string{"reason"},
		),
		AuthzDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authz_denials_total",
				Help:      "Accesos denegados por rol, recurso y acción.",
			},
			[]string{"role", "resource", "action"},
		),
		RecordMutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "record_mutations_total",
				Help:      "Mutaciones de registros por entidad, operación y resultado.",
			},
			[]string{"entity", "op", "outcome"},
		),
	}
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthFailuresTotal,
		m.AuthzDenialsTotal,
		m.RecordMutationsTotal,
	)
	return m
}

// RecordMutation implementa usecase.MutationRecorder.
func (m *Metrics) RecordMutation(entity, op, outcome string) {
	m.RecordMutationsTotal.WithLabelValues(entity, op, outcome).Inc()
}

// AuthFailure cuenta un fallo de autenticación.
func (m *Metrics) AuthFailure(reason string) {
	m.AuthFailuresTotal.WithLabelValues(reason).Inc()
}

// AuthzDenied cuenta una denegación de permisos.
func (m *Metrics) AuthzDenied(role, resource, action string) {
	m.AuthzDenialsTotal.WithLabelValues(role, resource, action).Inc()
}

// ObserveRequest registra un request terminado.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// Handler expone el registry en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

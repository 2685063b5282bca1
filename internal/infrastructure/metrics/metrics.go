package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/scm-fulfillment/internal/application/ports"
)

var _ ports.Metrics = (*Metrics)(nil)

// Metrics métricas Prometheus del servicio sobre un registro propio.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal           *prometheus.CounterVec
	stepsTotal          *prometheus.CounterVec
	apiRequestsTotal    *prometheus.CounterVec
	apiRequestDuration  *prometheus.HistogramVec
	propagationFailures *prometheus.CounterVec
	lockWait            prometheus.Histogram
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New crea y registra todas las métricas. namespace vacío = "scm".
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "scm"
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fulfillment",
		Name:      "runs_total",
		Help:      "Corridas del orquestador por origen y estado final",
	}, []string{"issue_type", "state"})

	m.stepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fulfillment",
		Name:      "steps_total",
		Help:      "Pasos del orquestador por nombre y resultado",
	}, []string{"step", "outcome"})

	m.apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Llamadas a la API SCM remota",
	}, []string{"operation", "outcome"})

	m.apiRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Duración de las llamadas a la API SCM remota",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	m.propagationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "document",
		Name:      "propagation_failures_total",
		Help:      "Propagaciones best-effort fallidas entre documentos",
	}, []string{"doc_type"})

	m.lockWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "inventory",
		Name:      "lock_wait_seconds",
		Help:      "Espera por el lock de una fila de inventario",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	})

	m.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Peticiones HTTP atendidas",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duración de las peticiones HTTP",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	registry.MustRegister(
		m.runsTotal, m.stepsTotal, m.apiRequestsTotal, m.apiRequestDuration,
		m.propagationFailures, m.lockWait, m.httpRequestsTotal, m.httpRequestDuration,
	)
	return m
}

func (m *Metrics) RunFinished(issueType, state string) {
	m.runsTotal.WithLabelValues(issueType, state).Inc()
}

func (m *Metrics) StepFinished(step, outcome string) {
	m.stepsTotal.WithLabelValues(step, outcome).Inc()
}

func (m *Metrics) PropagationFailed(docType string) {
	m.propagationFailures.WithLabelValues(docType).Inc()
}

func (m *Metrics) LockWait(d time.Duration) {
	m.lockWait.Observe(d.Seconds())
}

func (m *Metrics) APIRequest(operation, outcome string, d time.Duration) {
	m.apiRequestsTotal.WithLabelValues(operation, outcome).Inc()
	m.apiRequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// HTTPRequest registra una petición atendida por el servidor.
func (m *Metrics) HTTPRequest(method, route string, status int, d time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler expone el registro en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry devuelve el registro (tests).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK           = "ok"
	OutcomeInvalid      = "invalid_argument"
	OutcomeUnauthorized = "unauthorized"
	OutcomeConflict     = "conflict"
	OutcomeError        = "error"
)

type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_requests_total",
		Help: "Session endpoint calls by operation and outcome.",
	}, []string{"op", "outcome"})
	reg.MustRegister(
		requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{registry: reg, requests: requests}
}

func (m *Metrics) Observe(op, outcome string) {
	m.requests.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) Counter(op, outcome string) prometheus.Counter {
	return m.requests.WithLabelValues(op, outcome)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

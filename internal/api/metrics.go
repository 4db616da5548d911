package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingestion modes and outcomes used as metric labels.
const (
	ingestReplace = "replace"
	ingestAppend  = "append"

	resultOK       = "ok"
	resultRejected = "rejected"
	resultError    = "error"
)

// Metrics holds the collectors exposed on /metrics.
type Metrics struct {
	registry       *prometheus.Registry
	ingestTotal    *prometheus.CounterVec
	ingestedValues *prometheus.CounterVec
	requestSeconds *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ingestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oddsledger_ingest_total",
			Help: "Ingestion requests by mode and result.",
		}, []string{"mode", "result"}),
		ingestedValues: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oddsledger_ingested_values_total",
			Help: "Multiplier values stored by ingestion mode.",
		}, []string{"mode"}),
		requestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oddsledger_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observeIngest(mode string, stored int, err error) {
	result := resultOK
	switch {
	case err == nil:
		m.ingestedValues.WithLabelValues(mode).Add(float64(stored))
	case isClientError(err):
		result = resultRejected
	default:
		result = resultError
	}
	m.ingestTotal.WithLabelValues(mode, result).Inc()
}

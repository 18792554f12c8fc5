package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsCreated prometheus.Counter
	SessionsTotal   prometheus.Gauge

	// Exchange metrics
	ExchangesTotal *prometheus.CounterVec

	// Remote document service metrics
	RemoteCalls      *prometheus.CounterVec
	RemoteDuration   *prometheus.HistogramVec
	FilterSuperseded prometheus.Counter

	// Persistence metrics
	PersistFailures prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		SessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hub_sessions_created_total",
				Help: "Total number of chat sessions created",
			},
		),
		SessionsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hub_sessions",
				Help: "Number of chat sessions in the registry",
			},
		),

		ExchangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_exchanges_total",
				Help: "Total number of message exchanges by outcome",
			},
			[]string{"outcome"},
		),

		RemoteCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_remote_calls_total",
				Help: "Total number of remote document service calls",
			},
			[]string{"endpoint", "outcome"},
		),
		RemoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hub_remote_call_duration_seconds",
				Help:    "Remote document service call duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		FilterSuperseded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hub_filter_superseded_total",
				Help: "Filter responses discarded because a newer request was issued",
			},
		),

		PersistFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hub_persist_failures_total",
				Help: "Session persistence writes that failed",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hub_ws_connections",
				Help: "Number of active WebSocket snapshot streams",
			},
		),
	}
}

// Handler returns the Prometheus scrape handler for this collector.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRemoteCall records one remote document service call.
func (m *Metrics) RecordRemoteCall(endpoint, outcome string, duration time.Duration) {
	m.RemoteCalls.WithLabelValues(endpoint, outcome).Inc()
	m.RemoteDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordExchange records the outcome of one message exchange.
func (m *Metrics) RecordExchange(outcome string) {
	m.ExchangesTotal.WithLabelValues(outcome).Inc()
}

// RecordSessionCreated records a session creation and the new total.
func (m *Metrics) RecordSessionCreated(total int) {
	m.SessionsCreated.Inc()
	m.SessionsTotal.Set(float64(total))
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the console
type Metrics struct {
	// HTTP server metrics
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	// Upstream API client metrics
	APIRequestsTotal *prometheus.CounterVec

	// Session metrics
	SessionsActive prometheus.Gauge

	// System metrics
	UptimeSeconds prometheus.Gauge

	registry     *prometheus.Registry
	started      time.Time
	sessionCount func() int
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_api_requests_total",
				Help: "Total number of requests to the upstream API",
			},
			[]string{"endpoint", "status"},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_sessions_active",
				Help: "Number of live sessions in the store",
			},
		),
		UptimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),

		registry: reg,
		started:  time.Now(),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		m.APIRequestsTotal,
		m.SessionsActive,
		m.UptimeSeconds,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetSessionCounter registers the source for the active-sessions gauge.
func (m *Metrics) SetSessionCounter(fn func() int) {
	m.sessionCount = fn
}

// Handler returns the scrape endpoint handler, refreshing the point-in-time
// gauges on each scrape.
func (m *Metrics) Handler() http.Handler {
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.UptimeSeconds.Set(time.Since(m.started).Seconds())
		if m.sessionCount != nil {
			m.SessionsActive.Set(float64(m.sessionCount()))
		}
		inner.ServeHTTP(w, r)
	})
}

// ObserveAPIRequest records one upstream API call. Wired into the API
// client's Observe hook.
func (m *Metrics) ObserveAPIRequest(endpoint string, status int) {
	m.APIRequestsTotal.WithLabelValues(endpoint, statusLabel(status)).Inc()
}

func statusLabel(status int) string {
	switch {
	case status == 0:
		return "transport_error"
	case status < 300:
		return "ok"
	case status == 401:
		return "unauthorized"
	case status < 500:
		return "client_error"
	default:
		return "server_error"
	}
}

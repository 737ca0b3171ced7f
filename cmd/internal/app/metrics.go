package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private Prometheus registry so tests can build many Apps.
type Metrics struct {
	reg *prometheus.Registry

	httpDuration *prometheus.HistogramVec
	authEvents   *prometheus.CounterVec
	reaped       prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cauth",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route and status class.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "class"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cauth",
			Name:      "auth_events_total",
			Help:      "Auth operation outcomes by operation and result kind.",
		}, []string{"op", "result"}),
		reaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cauth",
			Name:      "sessions_reaped_total",
			Help:      "Sessions deleted by the expired-session reaper.",
		}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpDuration,
		m.authEvents,
		m.reaped,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// AuthEvent counts one auth outcome.
func (m *Metrics) AuthEvent(op, result string) {
	m.authEvents.WithLabelValues(op, result).Inc()
}

// SessionsReaped counts reaper deletions.
func (m *Metrics) SessionsReaped(n int64) {
	if n > 0 {
		m.reaped.Add(float64(n))
	}
}

func (m *Metrics) observeHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpDuration.WithLabelValues(method, route, statusClass(status)).Observe(d.Seconds())
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

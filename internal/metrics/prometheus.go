// Package metrics provides Prometheus metrics for the audio relay service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the streaming engine.
// Each instance owns its registry so multiple servers can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	ActiveSessions  prometheus.Gauge
	SessionsStarted prometheus.Counter
	SessionsEnded   prometheus.Counter

	// Request metrics
	RequestsRejected  prometheus.Counter
	NegotiatedFormats *prometheus.CounterVec
	BytesStreamed     prometheus.Counter
	WriteErrors       prometheus.Counter

	// Monitoring API metrics
	HTTPRequests *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "swyh_active_sessions",
			Help: "Current number of renderers receiving a stream",
		}),
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "swyh_sessions_started_total",
			Help: "Total number of streaming sessions started",
		}),
		SessionsEnded: factory.NewCounter(prometheus.CounterOpts{
			Name: "swyh_sessions_ended_total",
			Help: "Total number of streaming sessions ended",
		}),
		RequestsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "swyh_requests_rejected_total",
			Help: "Total number of requests rejected with 404",
		}),
		NegotiatedFormats: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "swyh_negotiated_formats_total",
			Help: "Streaming sessions by negotiated format",
		}, []string{"format"}),
		BytesStreamed: factory.NewCounter(prometheus.CounterOpts{
			Name: "swyh_bytes_streamed_total",
			Help: "Total number of audio bytes written to renderers",
		}),
		WriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "swyh_write_errors_total",
			Help: "Total number of response write errors",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "swyh_monitor_requests_total",
			Help: "Monitoring API requests by method and endpoint",
		}, []string{"method", "endpoint"}),
	}
}

// Handler returns an http.Handler serving this instance's registry.
// updateGauges, when non-nil, refreshes gauge values before each scrape.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

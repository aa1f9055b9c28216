// Package metrics exposes Prometheus collectors for the sync core and the
// web host.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors groups every crawldash metric on one registry.
type Collectors struct {
	Registry *prometheus.Registry

	PushFrames          *prometheus.CounterVec
	PushFramesDropped   prometheus.Counter
	Reconnects          prometheus.Counter
	ConnectionState     *prometheus.GaugeVec
	BackendRequests     *prometheus.CounterVec
	BackendDuration     *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	BrowserClients      prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collectors{
		Registry: reg,
		PushFrames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawldash_push_frames_total",
				Help: "Push frames received, by message type.",
			},
			[]string{"type"},
		),
		PushFramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawldash_push_frames_dropped_total",
			Help: "Push frames dropped because they could not be decoded.",
		}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawldash_push_reconnects_total",
			Help: "Reconnect attempts scheduled after the push channel closed.",
		}),
		ConnectionState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crawldash_push_connection_state",
				Help: "1 for the current push channel state, 0 otherwise.",
			},
			[]string{"state"},
		),
		BackendRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawldash_backend_requests_total",
				Help: "Backend REST requests, by endpoint and outcome.",
			},
			[]string{"endpoint", "outcome"},
		),
		BackendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawldash_backend_request_duration_seconds",
				Help:    "Duration of backend REST requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawldash_http_requests_total",
				Help: "Total number of HTTP requests served.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawldash_http_request_duration_seconds",
				Help:    "Duration of HTTP requests served.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		BrowserClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crawldash_browser_clients",
			Help: "Browsers currently subscribed to slot updates.",
		}),
	}
}

// SetConnectionState marks state as current and clears the others.
func (c *Collectors) SetConnectionState(state string, all []string) {
	if c == nil {
		return
	}
	for _, s := range all {
		value := 0.0
		if s == state {
			value = 1
		}
		c.ConnectionState.WithLabelValues(s).Set(value)
	}
}

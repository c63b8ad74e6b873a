package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, path and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SessionsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_started_total",
			Help: "Sessions started, by kind (shift or cleaning)",
		},
		[]string{"kind"},
	)

	SessionsEndedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_ended_total",
			Help: "Sessions ended, by kind and terminal status",
		},
		[]string{"kind", "status"},
	)

	SessionsAutoEndedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_auto_ended_total",
			Help: "Sessions closed by the watchdog after exceeding their ceiling",
		},
		[]string{"kind"},
	)

	LocationUpsertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "location_upserts_total",
			Help: "QR location registry upserts",
		},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Currently connected session event feed clients",
		},
	)
)

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docweave_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docweave_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	pagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docweave_pages_processed_total",
			Help: "Pages processed, by stage and outcome",
		},
		[]string{"stage", "status"}, // stage: extract, assemble
	)

	boxesPerPage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docweave_boxes_per_page",
			Help:    "Number of word boxes extracted per page",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	pageSkewDegrees = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docweave_page_skew_degrees",
			Help:    "Absolute estimated page skew in degrees",
			Buckets: []float64{0, 0.5, 1, 2, 5, 10, 20, 45},
		},
	)

	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docweave_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docweave_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // sent, received
	)
)

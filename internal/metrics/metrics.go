package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaling_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signaling_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Signaling state
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signaling_connections_active",
			Help: "Live signaling connections",
		},
	)

	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signaling_rooms_active",
			Help: "Rooms with at least one member",
		},
	)

	// Signaling traffic
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaling_events_total",
			Help: "Client events received",
		},
		[]string{"event"},
	)

	DroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaling_dropped_total",
			Help: "Client events silently dropped",
		},
		[]string{"reason"},
	)

	RelayUndeliverable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaling_relay_undeliverable_total",
			Help: "Addressed messages whose target was not connected",
		},
		[]string{"event"},
	)

	ChatMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signaling_chat_messages_total",
			Help: "Chat messages recorded in room history",
		},
	)

	Kicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaling_kicks_total",
			Help: "Kick requests by outcome",
		},
		[]string{"outcome"}, // "evicted" or "denied"
	)
)

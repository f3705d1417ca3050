package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "syncboard_connections_active",
			Help: "Currently registered connections",
		},
	)

	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "syncboard_rooms_active",
			Help: "Currently live rooms",
		},
	)

	// Business metrics
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncboard_messages_total",
			Help: "Total ledger operations applied",
		},
		[]string{"action"}, // "send", "edit" or "delete"
	)

	StrokesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "syncboard_strokes_total",
			Help: "Total canvas strokes applied",
		},
	)

	EventsFanout = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "syncboard_events_fanout_total",
			Help: "Total outbound events enqueued to clients",
		},
	)

	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncboard_rejections_total",
			Help: "Total rejected actions",
		},
		[]string{"code"},
	)

	ClientsKicked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "syncboard_clients_kicked_total",
			Help: "Total clients disconnected for a full egress buffer",
		},
	)
)

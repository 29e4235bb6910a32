package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_messages_sent_total",
			Help: "Total number of direct messages stored",
		},
	)

	MessagesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_messages_rejected_total",
			Help: "Total number of direct messages rejected by reason",
		},
		[]string{"reason"},
	)

	MessagesMarkedRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_messages_marked_read_total",
			Help: "Total number of messages flipped to read",
		},
	)

	MessageDecodeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_decode_failures_total",
			Help: "Total number of stored message bodies that failed to decode",
		},
	)

	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "messaging_websocket_connections_active",
			Help: "Number of active notification WebSocket connections",
		},
	)

	WebSocketNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_websocket_notifications_total",
			Help: "Total number of notifications pushed to WebSocket clients by result",
		},
		[]string{"result"},
	)

	WebSocketDisconnections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_websocket_disconnections_total",
			Help: "Total number of WebSocket disconnections",
		},
		[]string{"reason"},
	)
)

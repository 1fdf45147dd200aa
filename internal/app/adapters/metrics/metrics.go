package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PoolConnections - number of physical connections in the pool.
	PoolConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_pool_connections",
		Help: "Current number of physical chat connections",
	})

	// ConnectionsOpened - connections created by the pool.
	ConnectionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_connections_opened_total",
		Help: "Total number of chat connections created",
	})

	// ConnectionsClosed - closed connections by cause.
	ConnectionsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_connections_closed_total",
			Help: "Total number of chat connections closed per cause",
		},
		[]string{"cause"},
	)

	// WantedChannels - channels the client wants joined.
	WantedChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_wanted_channels",
		Help: "Current number of channels the client wants joined",
	})

	// JoinedChannels - channels confirmed joined by the server.
	JoinedChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_joined_channels",
		Help: "Current number of channels confirmed joined by the server",
	})

	// MessagesReceived - inbound messages per command.
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_received_total",
			Help: "Total number of inbound chat messages per command",
		},
		[]string{"command"},
	)

	// MessagesSent - outbound messages per result.
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of outbound chat messages per result",
		},
		[]string{"result"},
	)

	// EventSubscribers - live event feed subscribers.
	EventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_event_subscribers",
		Help: "Current number of event feed subscribers",
	})

	// DispatchTime - time spent fanning one message out to subscribers.
	DispatchTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_dispatch_seconds",
			Help:    "Time to dispatch a message to every subscriber",
			Buckets: prometheus.ExponentialBuckets(0.00005, 1.5, 25),
		},
	)
)

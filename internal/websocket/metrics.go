package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var connectedClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "forex",
		Subsystem: "ws",
		Name:      "connected_clients",
		Help:      "Number of connected WebSocket clients",
	},
)

var droppedClients = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "forex",
		Subsystem: "ws",
		Name:      "dropped_clients_total",
		Help:      "Clients disconnected because their send buffer was full",
	},
)

var receivedMessages = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "forex",
		Subsystem: "ws",
		Name:      "messages_total",
		Help:      "Inbound WebSocket messages by result",
	},
	[]string{"result"},
)

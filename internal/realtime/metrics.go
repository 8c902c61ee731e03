package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_publish_total",
		Help: "Events handed to the relay, by event and result.",
	}, []string{"event", "result"})

	publishDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_publish_dropped_total",
		Help: "Events dropped before reaching the relay because the queue was full.",
	}, []string{"event"})

	publishLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "realtime_publish_queue_seconds",
		Help:    "Time from enqueue to relay acknowledgement.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	gatewayConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_gateway_connections",
		Help: "Open websocket gateway connections.",
	})
)

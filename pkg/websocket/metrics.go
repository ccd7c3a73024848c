package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks whether the feed connection is up (0/1).
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "obengine_ws_active_connections",
		Help: "Whether the level2 feed WebSocket connection is active",
	})

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obengine_ws_reconnect_attempts_total",
		Help: "Total number of WebSocket reconnection attempts",
	})

	// ReconnectFailuresTotal tracks reconnection failures.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obengine_ws_reconnect_failures_total",
		Help: "Total number of WebSocket reconnection failures",
	})

	// ReconnectBackoffSeconds tracks the reconnect manager's current backoff
	// delay, so an operator can see a reconnect loop escalating toward
	// MaxDelay in real time rather than only after the fact via the
	// attempts/failures counters.
	ReconnectBackoffSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "obengine_ws_reconnect_backoff_seconds",
		Help: "Current exponential backoff delay before the next reconnect attempt",
	})

	// FramesReceivedTotal tracks raw frames received off the wire.
	FramesReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obengine_ws_frames_received_total",
		Help: "Total number of raw WebSocket frames received",
	})

	// FrameLatencySeconds tracks per-frame dispatch latency.
	FrameLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "obengine_ws_frame_latency_seconds",
		Help:    "Time to hand off one received frame to the ingress channel",
		Buckets: prometheus.DefBuckets,
	})

	// FramesDroppedTotal tracks frames dropped due to a full channel.
	FramesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obengine_ws_frames_dropped_total",
		Help: "Total number of frames dropped because the ingress channel was full",
	})

	// ConnectionDuration tracks connection lifetime before a disconnect.
	ConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "obengine_ws_connection_duration_seconds",
		Help:    "Duration of WebSocket connections before disconnect",
		Buckets: []float64{60, 300, 600, 1800, 3600, 7200, 14400, 28800, 43200, 86400},
	})
)

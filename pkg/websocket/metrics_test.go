package websocket

import (
	"testing"
)

// TestMetrics_Registration tests all metrics are initialized
func TestMetrics_Registration(t *testing.T) {
	if ActiveConnections == nil {
		t.Error("ActiveConnections not registered")
	}

	if ReconnectAttemptsTotal == nil {
		t.Error("ReconnectAttemptsTotal not registered")
	}

	if ReconnectFailuresTotal == nil {
		t.Error("ReconnectFailuresTotal not registered")
	}

	if FramesReceivedTotal == nil {
		t.Error("FramesReceivedTotal not registered")
	}

	if FrameLatencySeconds == nil {
		t.Error("FrameLatencySeconds not registered")
	}

	if FramesDroppedTotal == nil {
		t.Error("FramesDroppedTotal not registered")
	}

	if ConnectionDuration == nil {
		t.Error("ConnectionDuration not registered")
	}
}

// TestMetrics_CounterIncrement tests counter can be incremented
func TestMetrics_CounterIncrement(t *testing.T) {
	ReconnectAttemptsTotal.Inc()
	ReconnectFailuresTotal.Inc()
	FramesReceivedTotal.Inc()
	FramesDroppedTotal.Inc()
}

// TestMetrics_GaugeSet tests gauge can be set
func TestMetrics_GaugeSet(t *testing.T) {
	ActiveConnections.Set(1)
}

// TestMetrics_HistogramObserve tests histogram can observe values
func TestMetrics_HistogramObserve(t *testing.T) {
	FrameLatencySeconds.Observe(0.001)
	ConnectionDuration.Observe(3600)
}

package orderbook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal tracks ingested messages by type.
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obengine_orderbook_updates_total",
			Help: "Total number of ingested messages by type",
		},
		[]string{"message_type"},
	)

	// UpdateProcessingDuration tracks time spent in the update pipeline.
	UpdateProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "obengine_orderbook_update_processing_duration_seconds",
		Help:    "Time to apply a snapshot or l2update and run the pipeline",
		Buckets: []float64{0.0001, 0.0002, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	// MaxAskBidDiff tracks the monotonic maximum observed spread.
	MaxAskBidDiff = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "obengine_orderbook_max_ask_bid_diff",
		Help: "Widest historical spread observed since startup",
	})

	// BooksActive reports whether an engine instance is running.
	BooksActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "obengine_orderbook_active",
		Help: "Whether an order book engine instance is active (1=yes)",
	})

	// PendingTrainingRows reports the backlog of observed coarse buckets
	// not yet folded into a successful refit. A healthy engine keeps this
	// near zero; a forecaster stuck failing every refit lets it grow
	// without bound.
	PendingTrainingRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "obengine_orderbook_pending_training_rows",
		Help: "Observed coarse buckets not yet consumed by a successful forecast refit",
	})
)

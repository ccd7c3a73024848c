package forecast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ForecasterState reports the current lifecycle state (see State consts).
	ForecasterState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "obengine_forecaster_state",
		Help: "Forecaster lifecycle state (0=uninitialized,1=fitting,2=ready,3=updating)",
	})

	// ForecasterUpdatesTotal counts online Update calls folded into the model.
	ForecasterUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obengine_forecaster_updates_total",
		Help: "Total number of online model updates applied",
	})

	// ForecasterRefitsScheduled counts background refits kicked off.
	ForecasterRefitsScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obengine_forecaster_refits_scheduled_total",
		Help: "Total number of background refits scheduled",
	})

	// ForecasterRefitsSucceeded counts background refits that completed successfully.
	ForecasterRefitsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obengine_forecaster_refits_succeeded_total",
		Help: "Total number of background refits that completed successfully",
	})

	// ForecasterRefitFailuresTotal counts background refits that returned an error.
	ForecasterRefitFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obengine_forecaster_refit_failures_total",
		Help: "Total number of background refits that failed",
	})

	// ForecasterRefitSkippedTotal counts refit triggers dropped because one was
	// already in flight (the try-lock path).
	ForecasterRefitSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obengine_forecaster_refit_skipped_total",
		Help: "Total number of refit triggers skipped because a refit was already running",
	})

	// ForecasterRefitDuration tracks wall time of background refits.
	ForecasterRefitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "obengine_forecaster_refit_duration_seconds",
		Help:    "Time taken to run a background refit",
		Buckets: prometheus.DefBuckets,
	})
)

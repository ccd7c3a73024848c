package cachewriter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesWrittenTotal tracks raw frames persisted to the cache directory.
	FramesWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obengine_cachewriter_frames_written_total",
		Help: "Total number of raw frames written to the cache directory",
	})

	// WriteErrorsTotal tracks failed file writes.
	WriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obengine_cachewriter_write_errors_total",
		Help: "Total number of cache file write failures",
	})
)

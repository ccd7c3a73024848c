package ingress

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesTotal tracks parsed frames by message type.
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obengine_ingress_frames_total",
			Help: "Total number of inbound frames by parsed message type",
		},
		[]string{"message_type"},
	)

	// ParseErrorsTotal tracks frames that failed to parse.
	ParseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obengine_ingress_parse_errors_total",
		Help: "Total number of inbound frames that failed to parse",
	})

	// DispatchErrorsTotal tracks frames that parsed but failed to apply.
	DispatchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "obengine_ingress_dispatch_errors_total",
		Help: "Total number of parsed frames the order book engine rejected",
	})
)

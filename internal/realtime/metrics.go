package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "complyon_client",
			Name:      "ws_reconnects_total",
			Help:      "Reconnect attempts scheduled after an unexpected drop.",
		},
	)

	droppedFramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "complyon_client",
			Name:      "ws_dropped_frames_total",
			Help:      "Inbound frames dropped for failing shape validation.",
		},
	)
)

package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complyon_client",
			Name:      "request_retries_total",
			Help:      "Network-failure retries by operation.",
		},
		[]string{"op"},
	)

	authReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "complyon_client",
			Name:      "auth_replays_total",
			Help:      "Requests replayed after a successful token refresh.",
		},
	)
)

package requestcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "complyon_client",
			Name:      "request_cache_hits_total",
			Help:      "Calls coalesced onto an in-flight identical request.",
		},
	)

	missesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "complyon_client",
			Name:      "request_cache_misses_total",
			Help:      "Calls that started a new underlying request.",
		},
	)
)

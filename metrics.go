package complyon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var slowCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "complyon_client",
	Name:      "slow_calls_total",
	Help:      "Requests that exceeded the configured slow-call threshold.",
}, []string{"op"})

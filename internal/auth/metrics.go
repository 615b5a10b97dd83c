package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var refreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "complyon_client",
		Name:      "token_refreshes_total",
		Help:      "Network token refresh attempts by result.",
	},
	[]string{"result"},
)

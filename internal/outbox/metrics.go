package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complyon_client",
			Name:      "outbox_submissions_total",
			Help:      "Jobs accepted into the outbox.",
		},
		[]string{"shard"},
	)

	failuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complyon_client",
			Name:      "outbox_failures_total",
			Help:      "Jobs dropped after exhausting their retries.",
		},
		[]string{"shard"},
	)

	queueFullTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complyon_client",
			Name:      "outbox_queue_full_total",
			Help:      "Submissions rejected because a shard stayed full.",
		},
		[]string{"shard"},
	)

	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "complyon_client",
			Name:      "outbox_queue_depth",
			Help:      "Jobs waiting per shard.",
		},
		[]string{"shard"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "complyon_client",
			Name:      "outbox_run_duration_seconds",
			Help:      "Job execution time per shard.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"shard"},
	)
)

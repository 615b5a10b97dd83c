package funnel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	snapshotSavesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "complyon_client",
			Name:      "funnel_snapshot_saves_total",
			Help:      "Funnel snapshots persisted.",
		},
	)

	snapshotCorruptionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "complyon_client",
			Name:      "funnel_snapshot_corruptions_total",
			Help:      "Snapshots discarded for failing their checksum.",
		},
	)
)

package lease

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeLeases = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "indexgate",
		Subsystem: "lease",
		Name:      "active",
		Help:      "The number of leases that have been acquired but not yet released.",
	})

	refreshOutcome = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexgate",
		Subsystem: "lease",
		Name:      "refresh_total",
		Help:      "Refresh calls partitioned by outcome.",
	}, []string{"outcome"})

	reopenDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "indexgate",
		Subsystem: "lease",
		Name:      "reopen_duration_seconds",
		Help:      "Time spent opening the latest snapshot.",
		Buckets:   prometheus.DefBuckets,
	})

	versionGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "indexgate",
		Subsystem: "lease",
		Name:      "snapshot_version",
		Help:      "The version of the current snapshot.",
	})
)

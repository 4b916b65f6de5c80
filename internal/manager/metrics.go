package manager

import (
	"github.com/prometheus/client_golang/prometheus"

	"nllbd/pkg/types"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nllbd",
			Name:      "translate_requests_total",
			Help:      "Translate requests by result",
		},
		[]string{"result"},
	)

	sourcesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nllbd",
		Name:      "translated_sources_total",
		Help:      "Source strings translated",
	})

	translateSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nllbd",
		Name:      "translate_seconds",
		Help:      "Time spent in the translator per admitted request",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	queueGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nllbd",
		Name:      "queue_slots_used",
		Help:      "Admitted requests holding a queue slot",
	})

	inflightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nllbd",
		Name:      "inflight",
		Help:      "Requests running against the engine",
	})

	stateGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nllbd",
		Name:      "lifecycle_state",
		Help:      "0 starting, 1 serving, 2 draining, 3 stopped",
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, sourcesTotal, translateSeconds, queueGauge, inflightGauge, stateGauge)
}

func stateValue(s types.LifecycleState) float64 {
	switch s {
	case types.StateServing:
		return 1
	case types.StateDraining:
		return 2
	case types.StateStopped:
		return 3
	default:
		return 0
	}
}

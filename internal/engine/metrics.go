package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	batchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nllbd",
			Subsystem: "engine",
			Name:      "batches_total",
			Help:      "Engine generate calls by result",
		},
		[]string{"result"},
	)

	generateSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nllbd",
		Subsystem: "engine",
		Name:      "generate_seconds",
		Help:      "Engine generate latency per chunk",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	sourceTokens = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nllbd",
		Subsystem: "engine",
		Name:      "source_tokens_total",
		Help:      "Source tokens sent to the engine after truncation",
	})

	poolWaiting = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nllbd",
		Subsystem: "engine",
		Name:      "pool_waiting",
		Help:      "Chunks waiting for an engine worker",
	})
)

func init() {
	prometheus.MustRegister(batchesTotal, generateSeconds, sourceTokens, poolWaiting)
}

package artifact

import "github.com/prometheus/client_golang/prometheus"

var (
	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nllbd",
			Subsystem: "artifact",
			Name:      "conversions_total",
			Help:      "Artifact conversions by result",
		},
		[]string{"result"},
	)

	conversionSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nllbd",
		Subsystem: "artifact",
		Name:      "last_conversion_seconds",
		Help:      "Duration of the last successful conversion",
	})

	artifactBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nllbd",
		Subsystem: "artifact",
		Name:      "size_bytes",
		Help:      "Size of the last converted artifact",
	})

	reclaimedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nllbd",
		Subsystem: "artifact",
		Name:      "reclaimed_bytes_total",
		Help:      "Bytes of source weights removed after conversion",
	})
)

func init() {
	prometheus.MustRegister(conversionsTotal, conversionSeconds, artifactBytes, reclaimedBytes)
}

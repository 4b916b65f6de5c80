package rpcapi

import "github.com/prometheus/client_golang/prometheus"

var (
	rpcRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nllbd",
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Unary RPCs by method and status code",
		},
		[]string{"method", "code"},
	)

	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nllbd",
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "Duration of unary RPCs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	rpcAuthFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nllbd",
			Subsystem: "grpc",
			Name:      "auth_failures_total",
			Help:      "RPCs rejected for a missing or invalid bearer token",
		},
	)
)

func init() {
	prometheus.MustRegister(rpcRequestsTotal, rpcDuration, rpcAuthFailures)
}

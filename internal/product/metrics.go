package product

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var validateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "order_service",
	Subsystem: "product_client",
	Name:      "validate_duration_seconds",
	Help:      "Latency of product validation calls in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"outcome"})

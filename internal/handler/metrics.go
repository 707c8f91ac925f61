package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	commandsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "commands_processed_total",
			Help:      "Total number of successfully processed commands",
		},
		[]string{"pattern"},
	)

	commandsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "commands_failed_total",
			Help:      "Total number of failed command processing attempts",
		},
		[]string{"pattern"},
	)

	commandsDLQ = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "commands_dlq_total",
			Help:      "Total number of commands written to DLQ",
		},
	)

	responseErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "response_errors_total",
			Help:      "Total number of replies or DLQ writes that failed and were dropped",
		},
	)

	commitErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "commit_errors_total",
			Help:      "Total number of Kafka commit errors",
		},
	)

	commandProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "command_processing_duration_seconds",
			Help:      "Histogram of command processing durations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"pattern"},
	)

	commandsInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "commands_in_progress",
			Help:      "Number of commands currently being processed",
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(
		commandsProcessed,
		commandsFailed,
		commandsDLQ,
		responseErrors,
		commitErrors,
		commandProcessingDuration,
		commandsInProgress,
	)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docchat",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docchat",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"method", "route"},
	)

	// Inbound events by the state they ended in
	PipelineEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docchat",
			Subsystem: "pipeline",
			Name:      "events_total",
			Help:      "Inbound events processed, by final state",
		},
		[]string{"state"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docchat",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Time from dequeue to final state",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 90},
		},
	)

	QueueRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docchat",
			Subsystem: "pipeline",
			Name:      "queue_rejected_total",
			Help:      "Inbound events refused because the queue was full",
		},
	)

	DocumentUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docchat",
			Subsystem: "documents",
			Name:      "uploads_total",
			Help:      "Document uploads by outcome",
		},
		[]string{"outcome"},
	)

	ExternalFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docchat",
			Subsystem: "external",
			Name:      "failures_total",
			Help:      "Failed calls to external services",
		},
		[]string{"service"},
	)
)

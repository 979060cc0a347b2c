package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionResults counts form submissions by outcome (success|failure|nonce_rejected).
	SubmissionResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formgate_submission_results_total",
			Help: "Total number of inquiry form submissions",
		},
		[]string{"result"},
	)

	// SubmissionRetries counts transparent retries performed against the vendor submit endpoint.
	SubmissionRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "formgate_submission_retries_total",
			Help: "Total number of retried vendor submit attempts",
		},
	)

	// VendorRequestDuration measures the latency of vendor API calls by operation.
	VendorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formgate_vendor_request_duration_seconds",
			Help:    "Vendor API call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// RequirementsCacheLookups counts requirements cache hits and misses.
	RequirementsCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formgate_requirements_cache_lookups_total",
			Help: "Requirements cache lookups by result",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formgate_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

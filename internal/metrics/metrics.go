// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusEmpty   = "error_empty_response"
)

// Purpose label values for model requests.
const (
	PurposeTurn    = "turn"
	PurposeSummary = "summary"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eryndor_turns_total",
			Help: "Total number of processed player turns.",
		},
		[]string{"status"},
	)

	ModelRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eryndor_model_requests_total",
			Help: "Total number of requests to the model API.",
		},
		[]string{"purpose", "status"},
	)

	ModelRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eryndor_model_request_duration_seconds",
			Help:    "Histogram of model API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"purpose"},
	)

	WorldChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eryndor_world_changes_total",
			Help: "Total number of world changes recorded, by region.",
		},
		[]string{"region"},
	)
)

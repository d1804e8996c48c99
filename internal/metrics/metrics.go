// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry fetches
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trials_fetch_duration_seconds",
			Help:    "Duration of registry fetches in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"strategy"},
	)

	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trials_fetch_errors_total",
			Help: "Total number of failed registry fetches",
		},
		[]string{"strategy", "reason"},
	)

	FetchedStudies = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trials_fetched_studies",
			Help:    "Number of studies returned per fetch",
			Buckets: []float64{0, 1, 10, 50, 100, 250, 500, 1000},
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trials_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trials_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Pipeline
	PipelineRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trials_pipeline_records_total",
			Help: "Study records seen by the search pipeline, by outcome",
		},
		[]string{"outcome"}, // "kept", "dropped_date", "dropped_country"
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trials_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trials_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, route string, status int, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordPipeline records the per-outcome record counts of one search.
func RecordPipeline(kept, droppedDate, droppedCountry int) {
	PipelineRecords.WithLabelValues("kept").Add(float64(kept))
	PipelineRecords.WithLabelValues("dropped_date").Add(float64(droppedDate))
	PipelineRecords.WithLabelValues("dropped_country").Add(float64(droppedCountry))
}

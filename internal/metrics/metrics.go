// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	PatientsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "patients_created_total",
			Help: "Total number of patients inserted through the API",
		},
	)

	PatientRowsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "patient_rows_rejected_total",
			Help: "Stored patient rows skipped because they failed record validation",
		},
	)

	EventPublishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_publish_failures_total",
			Help: "Patient-created events that could not be published",
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)

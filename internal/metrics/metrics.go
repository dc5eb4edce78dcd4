// Package metrics declares the Prometheus collectors shared by the store,
// the consistency maintainer, the organizer and the service layer. They
// register with the default registry; an embedding application exposes them
// however it likes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transaction modes and results.
const (
	ModeView   = "view"
	ModeUpdate = "update"

	ResultCommitted  = "committed"
	ResultRolledBack = "rolled_back"
	ResultQuota      = "quota_exceeded"
	ResultError      = "error"
)

var (
	// Transactions counts store units of work by mode and result.
	Transactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shoebox_store_transactions_total",
		Help: "Store units of work by mode and result",
	}, []string{"mode", "result"})

	// PersistedBytes tracks the bytes staged per committed update.
	PersistedBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shoebox_store_persisted_bytes",
		Help:    "Bytes of JSONL written per committed update",
		Buckets: prometheus.ExponentialBuckets(256, 4, 10),
	})

	// RecountFailures counts derived-cache recomputations that failed and
	// were left for the health check.
	RecountFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shoebox_consistency_recount_failures_total",
		Help: "Count and layout recomputations that failed and were rolled back to their savepoint",
	})

	// HealthIssues counts issues found by health checks, by kind.
	HealthIssues = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shoebox_consistency_health_issues_total",
		Help: "Health check findings by kind",
	}, []string{"kind"})

	// DateAlbumsCreated counts date albums created by the organizer.
	DateAlbumsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shoebox_organize_date_albums_created_total",
		Help: "Date albums created by the auto-organizer",
	})

	// PhotosImported counts photos written by the import pipeline.
	PhotosImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shoebox_import_photos_total",
		Help: "Photos written by the import pipeline",
	})

	// OperationDuration tracks service operation latency.
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shoebox_operation_duration_seconds",
		Help:    "Service operation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"operation"})

	// OperationErrors counts failed service operations.
	OperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shoebox_operation_errors_total",
		Help: "Failed service operations",
	}, []string{"operation"})
)

// ObserveOperation records the duration of op since start and counts err.
func ObserveOperation(op string, start time.Time, err error) {
	OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		OperationErrors.WithLabelValues(op).Inc()
	}
}

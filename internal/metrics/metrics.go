// Package metrics exposes Prometheus instrumentation for the queue workers
// and the reconciliation synchronizer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashback_jobs_processed_total",
		Help: "Total number of queue jobs processed, labelled by queue and outcome.",
	}, []string{"queue", "outcome"})

	JobsRetried = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashback_jobs_retried_total",
		Help: "Total number of queue jobs re-enqueued after a failed attempt.",
	}, []string{"queue"})

	JobsDeadLettered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashback_jobs_dead_lettered_total",
		Help: "Total number of queue jobs moved to the dead-letter list.",
	}, []string{"queue"})

	JobsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashback_jobs_recovered_total",
		Help: "Total number of orphaned in-flight jobs returned to pending on worker startup.",
	}, []string{"queue"})

	TransactionsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashback_sync_transactions_fetched_total",
		Help: "Total number of affiliate transactions fetched, labelled by network.",
	}, []string{"network"})

	EventsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashback_sync_events_imported_total",
		Help: "Total number of cashback events created, labelled by network.",
	}, []string{"network"})

	EventsUpdated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashback_sync_events_updated_total",
		Help: "Total number of cashback events whose status changed, labelled by network.",
	}, []string{"network"})

	WalletCredits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cashback_wallet_credits_total",
		Help: "Total number of one-time wallet credits applied.",
	})

	SyncErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cashback_sync_errors_total",
		Help: "Total number of per-transaction reconciliation failures, labelled by network.",
	}, []string{"network"})

	SyncCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cashback_sync_cycle_duration_seconds",
		Help:    "End-to-end duration of one reconciliation cycle.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	})
)

// Package metrics provides Prometheus metrics for the metadata store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TxConflicts counts transactions aborted by a write-write conflict
	// (unique-constraint violation or lock error).
	TxConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metastore_tx_conflicts_total",
		Help: "Total number of transactions aborted by a conflict",
	})

	// TxRetries counts transaction attempts beyond the first.
	TxRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metastore_tx_retries_total",
		Help: "Total number of transaction retry attempts",
	})

	// TxRetriesExhausted counts units of work that failed after using
	// every allowed retry.
	TxRetriesExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metastore_tx_retries_exhausted_total",
		Help: "Total number of units of work that exhausted their retries",
	})

	// AspectWrites counts successful versioned aspect writes.
	AspectWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metastore_aspect_writes_total",
		Help: "Total number of committed aspect writes",
	})

	// BatchPages counts batch-get sub-queries issued.
	BatchPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metastore_batch_pages_total",
		Help: "Total number of batch-get pages queried",
	})

	// IndexQuerySeconds observes compiled index query latency.
	IndexQuerySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "metastore_index_query_duration_seconds",
		Help:    "Duration of secondary index queries in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

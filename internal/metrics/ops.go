package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Traversal and bulk-operation metrics
var (
	// WalkDuration tracks how long full tree walks take
	WalkDuration prometheus.Histogram

	// NodesVisitedTotal tracks total nodes visited across all walks
	NodesVisitedTotal prometheus.Counter

	// NodesRemovedTotal tracks total nodes deleted
	NodesRemovedTotal prometheus.Counter

	// BytesRemovedTotal tracks total bytes freed by tree removal
	BytesRemovedTotal prometheus.Counter

	// BytesCopiedTotal tracks total bytes transferred by copy operations
	BytesCopiedTotal prometheus.Counter

	// DirsCreatedTotal tracks directory levels created by makeTreePath
	DirsCreatedTotal prometheus.Counter

	// ErrorsTotal tracks total operation errors
	ErrorsTotal prometheus.Counter

	// OperationsTotal tracks bulk operations by kind and status
	OperationsTotal *prometheus.CounterVec

	// LastRunTimestamp records Unix timestamp of the last bulk operation
	LastRunTimestamp prometheus.Gauge
)

// initOpMetrics initializes all traversal metrics
func initOpMetrics() {
	WalkDuration = NewDurationHistogram(
		"treekit_walk_duration_seconds",
		"Duration of tree walks in seconds.",
	)

	NodesVisitedTotal = NewCounter(
		"treekit_nodes_visited_total",
		"Total number of nodes visited by tree walks.",
	)

	NodesRemovedTotal = NewCounter(
		"treekit_nodes_removed_total",
		"Total number of nodes removed by treekit.",
	)

	BytesRemovedTotal = NewCounter(
		"treekit_bytes_removed_total",
		"Total bytes freed by tree removal.",
	)

	BytesCopiedTotal = NewCounter(
		"treekit_bytes_copied_total",
		"Total bytes transferred by copy operations.",
	)

	DirsCreatedTotal = NewCounter(
		"treekit_dirs_created_total",
		"Total directory levels created.",
	)

	ErrorsTotal = NewCounter(
		"treekit_errors_total",
		"Total number of operation errors.",
	)

	OperationsTotal = NewCounterVec(
		"treekit_operations_total",
		"Bulk operations by kind and status.",
		[]string{"op", "status"},
	)

	LastRunTimestamp = NewGauge(
		"treekit_last_run_timestamp",
		"Timestamp of the last bulk operation (Unix epoch seconds).",
	)
}

// registerOpMetrics registers all traversal metrics with Prometheus
func registerOpMetrics() {
	prometheus.MustRegister(WalkDuration)
	prometheus.MustRegister(NodesVisitedTotal)
	prometheus.MustRegister(NodesRemovedTotal)
	prometheus.MustRegister(BytesRemovedTotal)
	prometheus.MustRegister(BytesCopiedTotal)
	prometheus.MustRegister(DirsCreatedTotal)
	prometheus.MustRegister(ErrorsTotal)
	prometheus.MustRegister(OperationsTotal)
	prometheus.MustRegister(LastRunTimestamp)
}

// RecordOperation records a finished bulk operation
func RecordOperation(op, status string) {
	OperationsTotal.WithLabelValues(op, status).Inc()
	LastRunTimestamp.Set(float64(time.Now().Unix()))
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Catalog query Prometheus metrics.
var (
	QueryStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facetdex",
			Name:      "query_stage_duration_seconds",
			Help:      "Duration of each query pipeline stage in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"stage"}, // "match_facet" / "sort" / "page"
	)

	QueryMatchedEntries = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "facetdex",
			Name:      "query_matched_entries",
			Help:      "Number of entries matched per query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	QueryWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "query_warnings_total",
			Help:      "Malformed query inputs replaced by defaults",
		},
		[]string{"field"},
	)

	QueryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "query_errors_total",
			Help:      "Failed queries by error type",
		},
		[]string{"error_type"},
	)

	SnapshotRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "snapshot_refresh_total",
			Help:      "Catalog snapshot rebuilds by result",
		},
		[]string{"result"}, // "ok" / "error"
	)

	SnapshotEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "facetdex",
			Name:      "snapshot_entries",
			Help:      "Entries in the installed catalog snapshot",
		},
	)

	SnapshotRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "snapshot_rejected_total",
			Help:      "Entries or tags dropped while building snapshots",
		},
	)
)

var registerQueryOnce sync.Once

// RegisterQueryMetrics registers catalog query metrics. Must be called from main.
func RegisterQueryMetrics() {
	registerQueryOnce.Do(func() {
		prometheus.MustRegister(
			QueryStageDuration,
			QueryMatchedEntries,
			QueryWarningsTotal,
			QueryErrorsTotal,
			SnapshotRefreshTotal,
			SnapshotEntries,
			SnapshotRejectedTotal,
		)
	})
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search and indexing Prometheus metrics.
var (
	SearchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchgate",
			Name:      "search_queries_total",
			Help:      "Total number of search queries",
		},
		[]string{"status"}, // "ok" / "error"
	)

	SearchQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "searchgate",
			Name:      "search_query_duration_seconds",
			Help:      "Search engine round-trip duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	IndexedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchgate",
			Name:      "indexed_documents_total",
			Help:      "Documents sent to the search engine",
		},
		[]string{"type", "status"}, // status: "ok" / "failed"
	)

	BulkFlushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchgate",
			Name:      "bulk_flushes_total",
			Help:      "Bulk flushes issued by indexers",
		},
		[]string{"type", "status"}, // status: "ok" / "partial" / "error"
	)

	BulkFlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchgate",
			Name:      "bulk_flush_duration_seconds",
			Help:      "Bulk flush duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"type"},
	)
)

var registerOnce sync.Once

// Register registers the HTTP, search and indexing metrics with the default
// registry. Called from main; repeated calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			SearchQueriesTotal,
			SearchQueryDuration,
			IndexedDocumentsTotal,
			BulkFlushesTotal,
			BulkFlushDuration,
		)
	})
}

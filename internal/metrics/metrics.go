package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billbook_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// LineCalculationsTotal counts single-row recomputations by policy mode
	LineCalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billbook_line_calculations_total",
			Help: "Number of line item recomputations",
		},
		[]string{"discount_mode", "tax_mode"},
	)

	DocumentCalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billbook_document_calculations_total",
			Help: "Number of whole-document aggregations",
		},
		[]string{"doc_type"},
	)

	DocumentLines = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "billbook_document_lines",
			Help:    "Rows per aggregated document",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	DraftOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billbook_draft_operations_total",
			Help: "Draft mutations by operation and outcome",
		},
		[]string{"operation", "result"},
	)

	DocumentsFinalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billbook_documents_finalized_total",
			Help: "Documents persisted from drafts",
		},
		[]string{"doc_type"},
	)

	StaleTotalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billbook_stale_totals_total",
			Help: "Stored documents whose totals disagreed with their rows on load",
		},
	)

	HandoffWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billbook_handoff_write_failures_total",
			Help: "Failed writes of hand-off snapshots to file storage",
		},
	)
)

// Result returns the outcome label for err
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

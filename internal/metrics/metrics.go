// Package metrics defines the Prometheus counters and histograms
// exported by the pipeline and query-answering services, following
// cmd/metrics-server's MustRegister-at-init idiom.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PipelineStageDuration tracks how long each pipeline stage takes,
	// labeled by stage name (ocr, chunk, ft_sync, vector) and outcome.
	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contract_archive_pipeline_stage_duration_seconds",
			Help:    "Duration of one contract pipeline stage.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage", "outcome"},
	)

	// OCRPageFailuresTotal counts vision-OCR page failures.
	OCRPageFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contract_archive_ocr_page_failures_total",
			Help: "Total number of pages that failed vision OCR recognition.",
		},
	)

	// QueryStageDuration tracks the hybrid query pipeline's per-stage
	// latency (lexical, semantic, rerank, llm).
	QueryStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contract_archive_query_stage_duration_seconds",
			Help:    "Duration of one hybrid query pipeline stage.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage", "status"},
	)

	// HTTPRequestsTotal counts HTTP requests by method, route and status
	// code.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_archive_http_requests_total",
			Help: "Total HTTP requests served.",
		},
		[]string{"route", "method", "status"},
	)

	// ContractsProcessedTotal counts contracts that reached a terminal
	// pipeline state, labeled by outcome (completed, failed).
	ContractsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_archive_contracts_processed_total",
			Help: "Total contracts that reached a terminal pipeline state.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		PipelineStageDuration,
		OCRPageFailuresTotal,
		QueryStageDuration,
		HTTPRequestsTotal,
		ContractsProcessedTotal,
	)
}

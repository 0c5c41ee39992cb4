package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// RunsTotal tracks completed pipeline runs
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energy_etl_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"job", "status"}, // status: success, failed
	)

	// RunDuration measures full run duration in seconds
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "energy_etl_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s to ~7m
		},
		[]string{"job"},
	)

	// StageDuration measures a single stage in seconds
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "energy_etl_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		},
		[]string{"stage", "status"},
	)

	// LastSuccess records the unix time of the last successful run
	LastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "energy_etl_last_success_timestamp",
			Help: "Unix timestamp of the last successful run",
		},
		[]string{"job"},
	)

	// RowsProcessed counts dataset rows by stage
	RowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energy_etl_rows_processed_total",
			Help: "Total number of dataset rows processed",
		},
		[]string{"stage", "result"}, // result: read, kept, dropped, written
	)

	// GDPLookups counts external GDP lookups by outcome
	GDPLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energy_etl_gdp_lookups_total",
			Help: "Total number of GDP lookups against the external source",
		},
		[]string{"status"}, // status: found, unknown, failed
	)

	// GDPCacheHits counts GDP cells answered by the run cache
	GDPCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "energy_etl_gdp_cache_hits_total",
			Help: "Total number of GDP cells answered from the run cache",
		},
	)

	// GDPFilled counts GDP cells filled by backfill
	GDPFilled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "energy_etl_gdp_filled_total",
			Help: "Total number of GDP cells filled from the external source",
		},
	)

	// CodebookMismatches tracks the latest codebook consistency results
	CodebookMismatches = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "energy_etl_codebook_mismatches",
			Help: "Codebook consistency mismatches found in the last run",
		},
		[]string{"kind"}, // kind: orphan, undocumented, duplicate
	)

	// ErrorsTotal counts total number of errors
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energy_etl_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordRun records a completed run
func RecordRun(job, status string, duration float64, finishedAt float64) {
	RunsTotal.WithLabelValues(job, status).Inc()
	RunDuration.WithLabelValues(job).Observe(duration)

	if status == "success" {
		LastSuccess.WithLabelValues(job).Set(finishedAt)
	}
}

// RecordStage records a pipeline stage
func RecordStage(stage, status string, duration float64) {
	StageDuration.WithLabelValues(stage, status).Observe(duration)
}

// RecordRows records rows for a stage
func RecordRows(stage, result string, count int) {
	RowsProcessed.WithLabelValues(stage, result).Add(float64(count))
}

// RecordGDPLookup records an external GDP lookup
func RecordGDPLookup(status string) {
	GDPLookups.WithLabelValues(status).Inc()
}

// RecordGDPCacheHit records a GDP cell answered by the cache
func RecordGDPCacheHit() {
	GDPCacheHits.Inc()
}

// RecordGDPFilled records filled GDP cells
func RecordGDPFilled(count int) {
	GDPFilled.Add(float64(count))
}

// RecordCodebookMismatches records the number of mismatches per kind
func RecordCodebookMismatches(counts map[string]int) {
	for kind, n := range counts {
		CodebookMismatches.WithLabelValues(kind).Set(float64(n))
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

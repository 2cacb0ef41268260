// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	RowsRead      *prometheus.CounterVec
	RowsSkipped   *prometheus.CounterVec
	RefRowsLoaded *prometheus.CounterVec

	// Transform metrics
	DuplicatesRemoved prometheus.Counter
	FactsEmitted      prometheus.Counter
	AnomaliesDetected *prometheus.CounterVec

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
	RowsLoaded      *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "crm_fact_pipeline"
	}

	return &Metrics{
		// Ingestion metrics
		RowsRead: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_read_total",
			Help:      "Total number of input rows read by extract",
		}, []string{"extract"}),
		RowsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_skipped_total",
			Help:      "Total number of structurally defective rows skipped by extract",
		}, []string{"extract"}),
		RefRowsLoaded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "reference_rows_loaded_total",
			Help:      "Total number of reference table rows loaded by table",
		}, []string{"table"}),

		// Transform metrics
		DuplicatesRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transform",
			Name:      "duplicates_removed_total",
			Help:      "Total number of superseded opportunity versions dropped at dedup",
		}),
		FactsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transform",
			Name:      "facts_emitted_total",
			Help:      "Total number of canonical fact rows emitted",
		}),
		AnomaliesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "anomalies_detected_total",
			Help:      "Total number of anomalies detected by code",
		}, []string{"code"}),

		// Run metrics
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"status"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
		RowsLoaded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "rows_loaded_total",
			Help:      "Total number of output rows loaded by database and table",
		}, []string{"database", "table"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRowsRead records input rows read and skipped for one extract.
func RecordRowsRead(extract string, read, skipped int) {
	DefaultMetrics.RowsRead.WithLabelValues(extract).Add(float64(read))
	DefaultMetrics.RowsSkipped.WithLabelValues(extract).Add(float64(skipped))
}

// RecordRefRowsLoaded records reference table rows loaded.
func RecordRefRowsLoaded(table string, count int) {
	DefaultMetrics.RefRowsLoaded.WithLabelValues(table).Add(float64(count))
}

// RecordDuplicatesRemoved adds to the duplicates removed counter.
func RecordDuplicatesRemoved(count int) {
	DefaultMetrics.DuplicatesRemoved.Add(float64(count))
}

// RecordFactsEmitted adds to the facts emitted counter.
func RecordFactsEmitted(count int) {
	DefaultMetrics.FactsEmitted.Add(float64(count))
}

// RecordAnomaly increments the anomaly counter for a code.
func RecordAnomaly(code string) {
	DefaultMetrics.AnomaliesDetected.WithLabelValues(code).Inc()
}

// RecordRun records one pipeline run outcome.
func RecordRun(status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RunDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordRowsLoaded records output rows loaded into a database table.
func RecordRowsLoaded(database, table string, count int) {
	DefaultMetrics.RowsLoaded.WithLabelValues(database, table).Add(float64(count))
}

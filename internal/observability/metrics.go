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
	// Cleaning metrics
	RowsRead    *prometheus.CounterVec
	RowsDropped *prometheus.CounterVec

	// Reconstruction metrics
	EventsReconstructed prometheus.Counter
	GroupsAssigned      prometheus.Counter

	// Feature metrics
	FeaturesComputed  *prometheus.CounterVec
	WindowCacheHits   prometheus.Counter
	WindowCacheMisses prometheus.Counter

	// Run metrics
	DaysProcessed *prometheus.CounterVec
	StageErrors   *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "taq_pipeline"
	}

	return &Metrics{
		RowsRead: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleaning",
			Name:      "rows_read_total",
			Help:      "Total number of raw rows read by table",
		}, []string{"table"}),
		RowsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleaning",
			Name:      "rows_dropped_total",
			Help:      "Total number of rows dropped by table and reason",
		}, []string{"table", "reason"}),

		EventsReconstructed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconstruct",
			Name:      "events_total",
			Help:      "Total number of events reconstructed",
		}),
		GroupsAssigned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconstruct",
			Name:      "groups_total",
			Help:      "Total number of distinct-timestamp groups assigned",
		}),

		FeaturesComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "columns_computed_total",
			Help:      "Total number of feature columns computed by window mode",
		}, []string{"mode"}),
		WindowCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "window_cache_hits_total",
			Help:      "Total number of window interval cache hits",
		}),
		WindowCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "window_cache_misses_total",
			Help:      "Total number of window interval cache misses",
		}),

		DaysProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "days_processed_total",
			Help:      "Total number of (symbol, date) jobs by status",
		}, []string{"status"}),
		StageErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "stage_errors_total",
			Help:      "Total number of fatal errors by pipeline stage",
		}, []string{"stage"}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
		}, []string{"stage"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRowsRead adds to the raw rows read counter.
func RecordRowsRead(table string, n int) {
	DefaultMetrics.RowsRead.WithLabelValues(table).Add(float64(n))
}

// RecordRowsDropped adds to the dropped rows counter.
func RecordRowsDropped(table, reason string, n int) {
	DefaultMetrics.RowsDropped.WithLabelValues(table, reason).Add(float64(n))
}

// RecordEventsReconstructed adds to the reconstructed event counters.
func RecordEventsReconstructed(events, groups int) {
	DefaultMetrics.EventsReconstructed.Add(float64(events))
	DefaultMetrics.GroupsAssigned.Add(float64(groups))
}

// RecordFeatureColumns adds to the computed feature column counter.
func RecordFeatureColumns(mode string, n int) {
	DefaultMetrics.FeaturesComputed.WithLabelValues(mode).Add(float64(n))
}

// RecordWindowCacheHit records a reuse of memoized window intervals.
func RecordWindowCacheHit() {
	DefaultMetrics.WindowCacheHits.Inc()
}

// RecordWindowCacheMiss records a window interval computation.
func RecordWindowCacheMiss() {
	DefaultMetrics.WindowCacheMisses.Inc()
}

// RecordDayProcessed records one finished (symbol, date) job.
func RecordDayProcessed(status string) {
	DefaultMetrics.DaysProcessed.WithLabelValues(status).Inc()
}

// RecordStageError records a fatal stage error.
func RecordStageError(stage string) {
	DefaultMetrics.StageErrors.WithLabelValues(stage).Inc()
}

// RecordStageDuration records a stage's elapsed time.
func RecordStageDuration(stage string, seconds float64) {
	DefaultMetrics.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

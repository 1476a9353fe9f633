// Package metrics provides Prometheus metrics for the storage toolkit.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Local file operation metrics
	fileOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fruitsalade_mobile_file_operations_total",
			Help: "Total local file operations",
		},
		[]string{"op", "result"},
	)

	bytesCopied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fruitsalade_mobile_bytes_copied_total",
			Help: "Total bytes copied between local files",
		},
	)

	filesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fruitsalade_mobile_files_deleted_total",
			Help: "Total local files and folders removed by recursive deletes",
		},
	)

	mediaIndexInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fruitsalade_mobile_media_index_invalidations_total",
			Help: "Total media index entries invalidated for deleted files",
		},
		[]string{"result"},
	)

	// Space metrics
	spaceChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fruitsalade_mobile_space_checks_total",
			Help: "Total free-space checks before downloads",
		},
		[]string{"result"},
	)

	availableBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fruitsalade_mobile_available_bytes",
			Help: "Last observed free bytes on the storage volume",
		},
	)

	// Profile metrics
	profileFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fruitsalade_mobile_profile_fetches_total",
			Help: "Total user profile fetches",
		},
		[]string{"result"},
	)

	profileFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fruitsalade_mobile_profile_fetch_duration_seconds",
			Help:    "User profile fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fruitsalade_mobile_db_query_duration_seconds",
			Help:    "File index query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	dbConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fruitsalade_mobile_db_connections_open",
			Help: "Number of open file index connections",
		},
	)
)

// WriteTextfile writes all registered metrics to path in the text exposition
// format, for pickup by a node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordFileOp records a local file operation.
func RecordFileOp(op string, success bool) {
	fileOpsTotal.WithLabelValues(op, result(success)).Inc()
}

// RecordBytesCopied adds to the copied bytes counter.
func RecordBytesCopied(n int64) {
	bytesCopied.Add(float64(n))
}

// RecordDeleted records one removed file or folder.
func RecordDeleted() {
	filesDeleted.Inc()
}

// RecordMediaIndexInvalidation records a media index notification.
func RecordMediaIndexInvalidation(success bool) {
	mediaIndexInvalidations.WithLabelValues(result(success)).Inc()
}

// RecordSpaceCheck records the outcome of a free-space check.
// outcome is "enough", "insufficient" or "unknown".
func RecordSpaceCheck(outcome string) {
	spaceChecksTotal.WithLabelValues(outcome).Inc()
}

// SetAvailableBytes sets the last observed free space.
func SetAvailableBytes(n int64) {
	availableBytes.Set(float64(n))
}

// RecordProfileFetch records a profile fetch.
func RecordProfileFetch(duration time.Duration, success bool) {
	profileFetchDuration.Observe(duration.Seconds())
	profileFetchesTotal.WithLabelValues(result(success)).Inc()
}

// RecordDBQuery records a database query duration.
func RecordDBQuery(query string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// SetDBConnectionsOpen sets the number of open database connections.
func SetDBConnectionsOpen(count int) {
	dbConnectionsOpen.Set(float64(count))
}

package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks registry stub request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts registry stub requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ChangesTotal counts registry changes applied by the reconciler, by action.
	ChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchsync_changes_total",
			Help: "Total number of saved search changes applied by action",
		},
		[]string{"action"},
	)

	// RunsTotal counts reconciliation runs by status (ok, error, dry_run).
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchsync_runs_total",
			Help: "Total number of reconciliation runs by status",
		},
		[]string{"status"},
	)

	// RunDuration tracks how long a reconciliation run takes.
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "searchsync_run_duration_seconds",
			Help:    "Reconciliation run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// LastRunTimestamp is the unix time of the last finished run.
	LastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "searchsync_last_run_timestamp_seconds",
			Help: "Unix time of the last finished reconciliation run",
		},
	)
)

var (
	// Saved search names are user supplied; keep them out of label values.
	entityPathSegment = regexp.MustCompile(`(/saved/searches)/[^/]+`)
	initOnce          sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, ChangesTotal, RunsTotal, RunDuration, LastRunTimestamp)
	})
}

// NormalizePath reduces cardinality by replacing saved search names with {name}.
// E.g. /servicesNS/nobody/app/saved/searches/My%20Search/enable -> /servicesNS/nobody/app/saved/searches/{name}/enable.
func NormalizePath(path string) string {
	return entityPathSegment.ReplaceAllString(path, "$1/{name}")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncChanges increments the applied change counter for action.
func IncChanges(action string) {
	ChangesTotal.WithLabelValues(action).Inc()
}

// ObserveRun records the outcome and duration of one reconciliation run.
func ObserveRun(status string, durationSeconds float64, finishedUnix float64) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(durationSeconds)
	LastRunTimestamp.Set(finishedUnix)
}

// WriteTextfile writes every registered metric to path in the text exposition
// format, for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

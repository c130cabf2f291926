// Package metrics defines Prometheus metrics for the event service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tzevents_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tzevents_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	EventMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tzevents_event_mutations_total",
			Help: "Event writes by operation (create, update, delete)",
		},
		[]string{"operation"},
	)

	ChangeLogEntries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tzevents_change_log_entries_total",
			Help: "Change log entries written",
		},
	)

	ChangeLogWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tzevents_change_log_write_failures_total",
			Help: "Change log writes that failed after the event write succeeded",
		},
	)

	ProfileCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tzevents_profile_cache_lookups_total",
			Help: "Profile cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal,
		EventMutations, ChangeLogEntries, ChangeLogWriteFailures,
		ProfileCacheLookups,
	)
}

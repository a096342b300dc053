package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Collector metrics
	EventsTracked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemstore_events_tracked_total",
			Help: "Total number of storefront events accepted by the collector",
		},
		[]string{"event_type", "mode"},
	)

	TrackErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gemstore_track_errors_total",
			Help: "Total number of event batches that failed to persist",
		},
	)

	// Dashboard report metrics
	ReportBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gemstore_report_build_duration_seconds",
			Help:    "Time spent fetching and aggregating a dashboard report",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	ReportSourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemstore_report_source_failures_total",
			Help: "Fetch failures replaced by an empty list while building a report",
		},
		[]string{"source"},
	)

	ReportCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemstore_report_cache_lookups_total",
			Help: "Dashboard report cache lookups by result",
		},
		[]string{"result"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemstore_http_requests_total",
			Help: "Total HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gemstore_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

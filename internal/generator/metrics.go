package generator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests tracks upstream calls by endpoint and HTTP status.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datatable_upstream_requests_total",
			Help: "Total number of requests sent to the generator API",
		},
		[]string{"endpoint", "status"},
	)

	// UpstreamDuration tracks upstream call latency by endpoint.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datatable_upstream_request_duration_seconds",
			Help:    "Generator API request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// UpstreamErrors tracks failed upstream calls by class.
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datatable_upstream_errors_total",
			Help: "Total number of failed generator API calls",
		},
		[]string{"class"}, // "client", "server", "network", "decode", "rate_limit"
	)

	// SharedFetches counts callers that joined an identical in-flight request.
	SharedFetches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datatable_upstream_shared_total",
			Help: "Total number of callers served by an identical in-flight request",
		},
	)

	// CacheHits tracks page cache hits by layer.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datatable_cache_hits_total",
			Help: "Total number of page cache hits",
		},
		[]string{"layer"}, // "memory", "redis"
	)

	// CacheMisses tracks page cache misses.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datatable_cache_misses_total",
			Help: "Total number of page cache misses",
		},
	)

	// CacheErrors tracks page cache operation errors.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datatable_cache_errors_total",
			Help: "Total number of page cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)

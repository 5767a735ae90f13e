package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry holds every collector exposed on /api/metrics
	Registry = prometheus.NewRegistry()

	factory  = promauto.With(Registry)
	initOnce sync.Once

	// Custom histogram buckets for API response times ranging from milliseconds to 30+ seconds
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34}

	// HTTP Metrics
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Backend client metrics (Transfer Connect backend)
	BackendRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_client_operation_duration_seconds",
			Help:    "Backend client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	BackendRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_client_operation_total",
			Help: "Total number of backend client operations",
		},
		[]string{"operation", "status"},
	)

	// Cache Metrics
	CacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	CacheSize = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Number of entries in cache",
		},
		[]string{"cache_name"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open
	BreakerState = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state",
		},
		[]string{"breaker"},
	)

	// Business Metrics
	SessionOperations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peerconnect_session_operations_total",
			Help: "Total number of session controller operations",
		},
		[]string{"operation", "outcome"},
	)

	Notifications = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peerconnect_notifications_total",
			Help: "Total number of notifications shown to users",
		},
		[]string{"kind"},
	)

	MentorSearchResults = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "peerconnect_mentor_search_results",
			Help:    "Number of mentors returned per search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	SessionsStarted = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "peerconnect_browser_sessions_started_total",
			Help: "Total number of browser sessions started",
		},
	)

	FrontendLogsReceived = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peerconnect_frontend_logs_total",
			Help: "Total number of frontend log entries received",
		},
		[]string{"level"},
	)

	serviceInfo = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "peerconnect_service_info",
			Help: "Static service information",
		},
		[]string{"service_name"},
	)
)

// Init registers runtime collectors and the service info gauge. Safe to call twice.
func Init(serviceName string) {
	initOnce.Do(func() {
		Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		serviceInfo.WithLabelValues(serviceName).Set(1)
	})
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}

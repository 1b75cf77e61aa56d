package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the console.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	upstreamDuration  *prometheus.HistogramVec
	mutationTotal     *prometheus.CounterVec
	categoryFallbacks prometheus.Counter
	staleResponses    prometheus.Counter
	activeSessions    prometheus.Gauge
}

// NewMetricsService registers the console collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "library_api_request_duration_seconds",
		Help:    "Duration of library API calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	mutationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_mutations_total",
		Help: "Roster mutations by operation and outcome",
	}, []string{"operation", "outcome"})

	categoryFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "category_resolution_fallbacks_total",
		Help: "Category lookups that fell back to the default ban duration",
	})

	staleResponses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_stale_responses_total",
		Help: "Mutation responses dropped because a newer mutation on the same record was already reconciled",
	})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "console_sessions_active",
		Help: "Number of live console sessions",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, upstreamDuration, mutationTotal, categoryFallbacks, staleResponses, activeSessions, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		upstreamDuration:  upstreamDuration,
		mutationTotal:     mutationTotal,
		categoryFallbacks: categoryFallbacks,
		staleResponses:    staleResponses,
		activeSessions:    activeSessions,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records console request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveUpstream records a library API call. Status 0 means the transport failed.
func (m *MetricsService) ObserveUpstream(operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(operation, fmt.Sprintf("%d", status)).Observe(duration.Seconds())
}

// RecordMutation counts a mutation outcome: "ok", "rejected" (local validation),
// "conflict" or "failed".
func (m *MetricsService) RecordMutation(operation, outcome string) {
	if m == nil {
		return
	}
	m.mutationTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordCategoryFallback counts a default ban duration substitution.
func (m *MetricsService) RecordCategoryFallback() {
	if m == nil {
		return
	}
	m.categoryFallbacks.Inc()
}

// RecordStaleResponse counts a dropped out-of-order mutation response.
func (m *MetricsService) RecordStaleResponse() {
	if m == nil {
		return
	}
	m.staleResponses.Inc()
}

// SetActiveSessions publishes the live session count.
func (m *MetricsService) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

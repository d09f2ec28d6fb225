// Package metrics provides Prometheus metrics for the LookingForLove match service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the match service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core business metrics
	scoringLatency    prometheus.Histogram
	matchScores       prometheus.Histogram
	candidatesScored  prometheus.Counter
	matchSearches     prometheus.Counter
	contactExposures  prometheus.Counter
	matchesCreated    prometheus.Counter
	ratingsSubmitted  *prometheus.CounterVec
	statsRefreshes    prometheus.Counter
	statsRefreshTime  prometheus.Histogram
	statsLastRefresh  prometheus.Gauge
	membersByTier     *prometheus.GaugeVec
	scoringErrors     prometheus.Counter
	statsRefreshFails prometheus.Counter

	// Repository metrics
	repositoryUpdateLatency *prometheus.HistogramVec
	repositoryQueryLatency  *prometheus.HistogramVec
	cacheLookups            *prometheus.CounterVec

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "lfl",
		subsystem:        "match",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// name applies the optional metric prefix.
func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.scoringLatency = auto.NewHistogram(m.histogramOpts(
		"scoring_latency_milliseconds",
		"Latency of a single pairwise compatibility computation in milliseconds",
		m.histogramBuckets,
	))
	m.matchScores = auto.NewHistogram(m.histogramOpts(
		"match_score",
		"Distribution of computed match scores",
		prometheus.LinearBuckets(0, 10, 11),
	))
	m.candidatesScored = auto.NewCounter(m.counterOpts(
		"candidates_scored_total",
		"Total number of candidate profiles scored",
	))
	m.matchSearches = auto.NewCounter(m.counterOpts(
		"searches_total",
		"Total number of match searches served",
	))
	m.contactExposures = auto.NewCounter(m.counterOpts(
		"contact_exposures_total",
		"Total number of contact exposure calls, repeats included",
	))
	m.matchesCreated = auto.NewCounter(m.counterOpts(
		"records_created_total",
		"Total number of match records created by a first exposure",
	))
	m.ratingsSubmitted = auto.NewCounterVec(m.counterOpts(
		"ratings_total",
		"Total number of ratings submitted by star value",
	), []string{"stars"})
	m.statsRefreshes = auto.NewCounter(m.counterOpts(
		"statistics_refresh_total",
		"Total number of statistics recomputations",
	))
	m.statsRefreshTime = auto.NewHistogram(m.histogramOpts(
		"statistics_refresh_duration_milliseconds",
		"Duration of a statistics recomputation in milliseconds",
		m.histogramBuckets,
	))
	m.statsLastRefresh = auto.NewGauge(m.gaugeOpts(
		"statistics_last_refresh_unix",
		"Unix timestamp of the last statistics recomputation",
	))
	m.membersByTier = auto.NewGaugeVec(m.gaugeOpts(
		"members",
		"Members per membership tier as of the last statistics refresh",
	), []string{"tier"})
	m.scoringErrors = auto.NewCounter(m.counterOpts(
		"scoring_errors_total",
		"Total number of scoring failures",
	))
	m.statsRefreshFails = auto.NewCounter(m.counterOpts(
		"statistics_refresh_errors_total",
		"Total number of failed statistics recomputations",
	))

	m.repositoryUpdateLatency = auto.NewHistogramVec(m.histogramOpts(
		"repository_update_latency_milliseconds",
		"Repository write latency in milliseconds",
		m.histogramBuckets,
	), []string{"store", "op"})
	m.repositoryQueryLatency = auto.NewHistogramVec(m.histogramOpts(
		"repository_query_latency_milliseconds",
		"Repository read latency in milliseconds",
		m.histogramBuckets,
	), []string{"store", "op"})
	m.cacheLookups = auto.NewCounterVec(m.counterOpts(
		"cache_lookups_total",
		"Statistics cache lookups by result",
	), []string{"result"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total",
		"Total number of HTTP requests by endpoint and method",
	), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds",
		"HTTP request duration in milliseconds",
		m.histogramBuckets,
	), []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts(
		"errors_by_component_total",
		"Errors by component and type",
	), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts(
		"errors_by_type_total",
		"Errors by type and severity",
	), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total",
		"Errors by endpoint, method and type",
	), []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts(
		"error_latency_milliseconds",
		"Latency of operations that ended in an error",
		m.histogramBuckets,
	), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes",
		"System memory usage in bytes",
	))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count",
		"Number of goroutines",
	))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordScoringLatency records the latency of one pairwise score in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordMatchScore records a computed score.
func RecordMatchScore(score int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.matchScores.Observe(float64(score))
	globalManager.candidatesScored.Inc()
}

// RecordMatchSearch increments the searches counter.
func RecordMatchSearch() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.matchSearches.Inc()
}

// RecordContactExposure increments the exposure counter. Repeat calls count.
func RecordContactExposure() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.contactExposures.Inc()
}

// RecordMatchCreated increments the created records counter.
func RecordMatchCreated() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.matchesCreated.Inc()
}

// RecordRating increments the ratings counter for the given star value.
func RecordRating(stars string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.ratingsSubmitted.WithLabelValues(stars).Inc()
}

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.scoringErrors.Inc()
}

// RecordStatisticsRefresh records a successful recomputation and its duration.
func RecordStatisticsRefresh(durationMs float64, at time.Time) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.statsRefreshes.Inc()
	globalManager.statsRefreshTime.Observe(durationMs)
	globalManager.statsLastRefresh.Set(float64(at.Unix()))
}

// RecordStatisticsRefreshError increments the failed recomputation counter.
func RecordStatisticsRefreshError() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.statsRefreshFails.Inc()
}

// UpdateMembersByTier sets the member gauge for a tier.
func UpdateMembersByTier(tier string, count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.membersByTier.WithLabelValues(tier).Set(float64(count))
}

// RecordRepositoryUpdateLatency records repository write latency.
func RecordRepositoryUpdateLatency(store, op string, latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.repositoryUpdateLatency.WithLabelValues(store, op).Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository read latency.
func RecordRepositoryQueryLatency(store, op string, latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.repositoryQueryLatency.WithLabelValues(store, op).Observe(latencyMs)
}

// RecordCacheLookup records a statistics cache hit or miss.
func RecordCacheLookup(hit bool) {
	if !globalManager.enabled.Load() {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// SetEnabled turns recording on or off for the global manager. Collectors
// stay registered and keep their last values while disabled.
func SetEnabled(enabled bool) {
	globalManager.enabled.Store(enabled)
}

// Enabled reports whether the global manager records.
func Enabled() bool {
	return globalManager.enabled.Load()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Since returns the elapsed time since start in milliseconds.
func Since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

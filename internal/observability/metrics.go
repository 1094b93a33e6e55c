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
	// Analytics metrics
	AnalyticsQueries        *prometheus.CounterVec
	AnalyticsQueryDuration  *prometheus.HistogramVec
	PatternAnalysesRun      prometheus.Counter
	PatternLogsAnalyzed     prometheus.Counter
	TradesAnalyzed          prometheus.Counter

	// Candle cache metrics
	CandleCacheHits     prometheus.Counter
	CandleCacheMisses   prometheus.Counter
	ProviderCalls       *prometheus.CounterVec
	ProviderCallLatency prometheus.Histogram
	CandlesCleanedUp    prometheus.Counter
	StreamCandlesStored prometheus.Counter

	// HTTP metrics
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulCleanup prometheus.Gauge
	UptimeSeconds         prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tradetaper_analytics"
	}

	return &Metrics{
		// Analytics metrics
		AnalyticsQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "queries_total",
			Help:      "Total number of analytics queries by kind",
		}, []string{"kind"}),
		AnalyticsQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "query_duration_seconds",
			Help:      "Analytics query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		PatternAnalysesRun: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "patterns",
			Name:      "analyses_total",
			Help:      "Total number of pattern discovery runs",
		}),
		PatternLogsAnalyzed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "patterns",
			Name:      "logs_analyzed_total",
			Help:      "Total number of market logs fed into pattern discovery",
		}),
		TradesAnalyzed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "trades_analyzed_total",
			Help:      "Total number of trades fed into stat computations",
		}),

		// Candle cache metrics
		CandleCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "cache_hits_total",
			Help:      "Total candle reads served entirely from cache",
		}),
		CandleCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "cache_misses_total",
			Help:      "Total candle reads that required a provider fetch",
		}),
		ProviderCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "provider_calls_total",
			Help:      "Total provider fetches by status",
		}, []string{"status"}),
		ProviderCallLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "provider_call_latency_seconds",
			Help:      "Provider fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		CandlesCleanedUp: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "cleaned_up_total",
			Help:      "Total candles removed by retention cleanup",
		}),
		StreamCandlesStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "stream_stored_total",
			Help:      "Total candles persisted from the live feed",
		}),

		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route and status code",
		}, []string{"route", "status"}),
		HTTPRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_latency_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

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

		// Health metrics
		LastSuccessfulCleanup: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cleanup_timestamp",
			Help:      "Unix timestamp of last successful candle cleanup",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAnalyticsQuery records one analytics query with its duration.
func RecordAnalyticsQuery(kind string, seconds float64) {
	DefaultMetrics.AnalyticsQueries.WithLabelValues(kind).Inc()
	DefaultMetrics.AnalyticsQueryDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordTradesAnalyzed adds to the analyzed-trade counter.
func RecordTradesAnalyzed(n int) {
	DefaultMetrics.TradesAnalyzed.Add(float64(n))
}

// RecordPatternAnalysis records a pattern discovery run over n logs.
func RecordPatternAnalysis(n int) {
	DefaultMetrics.PatternAnalysesRun.Inc()
	DefaultMetrics.PatternLogsAnalyzed.Add(float64(n))
}

// RecordCandleCacheHit increments the cache hit counter.
func RecordCandleCacheHit() {
	DefaultMetrics.CandleCacheHits.Inc()
}

// RecordCandleCacheMiss increments the cache miss counter.
func RecordCandleCacheMiss() {
	DefaultMetrics.CandleCacheMisses.Inc()
}

// RecordProviderCall records a provider fetch outcome and latency.
func RecordProviderCall(status string, seconds float64) {
	DefaultMetrics.ProviderCalls.WithLabelValues(status).Inc()
	DefaultMetrics.ProviderCallLatency.Observe(seconds)
}

// RecordCandlesCleanedUp adds to the retention cleanup counter.
func RecordCandlesCleanedUp(n int64) {
	DefaultMetrics.CandlesCleanedUp.Add(float64(n))
}

// RecordStreamCandleStored increments the streamed-candle counter.
func RecordStreamCandleStored() {
	DefaultMetrics.StreamCandlesStored.Inc()
}

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(route, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, status).Inc()
	DefaultMetrics.HTTPRequestLatency.WithLabelValues(route).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Think pipeline metrics
	ThinkRequests      prometheus.Counter
	ThinkLatency       prometheus.Histogram
	EngineSuccesses    *prometheus.CounterVec
	EngineFailures     *prometheus.CounterVec
	FallbackExhausted  prometheus.Counter
	RoutedByCategory   *prometheus.CounterVec

	// Context assembly metrics
	ContextSections *prometheus.CounterVec
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		ThinkRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mindwave_think_requests_total",
			Help: "Total number of think requests processed",
		}),

		ThinkLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mindwave_think_duration_seconds",
			Help:    "Think request latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}, // up to 2 minutes for LLM responses
		}),

		EngineSuccesses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mindwave_engine_successes_total",
			Help: "Successful generations by engine",
		}, []string{"engine"}),

		EngineFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mindwave_engine_failures_total",
			Help: "Failed generation attempts by engine",
		}, []string{"engine"}),

		FallbackExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mindwave_fallback_exhausted_total",
			Help: "Think calls where every engine in the chain was unready or failed",
		}),

		RoutedByCategory: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mindwave_routed_total",
			Help: "Routing decisions by category",
		}, []string{"category"}),

		ContextSections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mindwave_context_sections_total",
			Help: "Context sections assembled, by source and outcome",
		}, []string{"source", "outcome"}), // outcome: "included", "empty", "failed"
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

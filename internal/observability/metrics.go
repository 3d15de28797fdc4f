package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/evapotranspiration-service/internal/traffic"
)

// Evaluation outcome labels.
const (
	OutcomeSuccess          = "success"
	OutcomeInvalidInput     = "invalid_input"
	OutcomeComputationError = "computation_error"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p99 increases; evaluation itself is sub-millisecond.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Evaluations by outcome. Watch for: invalid_input share (client bugs), computation_error (edge inputs).
	EvaluationsTotal *prometheus.CounterVec

	// Failed evaluations by formula stage.
	EvaluationFailuresTotal *prometheus.CounterVec

	// Formula chain latency, cache excluded.
	EvaluationDuration prometheus.Histogram

	// Cache hits. Hit rate = hits / evaluationsTotal{outcome="success"}.
	CacheHitsTotal *prometheus.CounterVec

	// Cache backend errors by operation (get, set). Never fail a calculation.
	CacheErrorsTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	rateLimitGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluationsTotal",
			Help: "Total number of evapotranspiration evaluations by outcome",
		},
		[]string{"outcome"},
	)
	EvaluationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluationFailuresTotal",
			Help: "Evaluations aborted by a numeric failure, by formula stage",
		},
		[]string{"stage"},
	)
	EvaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evaluationDurationSeconds",
			Help:    "Formula chain evaluation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(1e-7, 4, 10),
		},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of result cache hits",
		},
		[]string{"cacheType"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Result cache backend errors by operation",
		},
		[]string{"operation"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		EvaluationsTotal, EvaluationFailuresTotal, EvaluationDuration,
		CacheHitsTotal, CacheErrorsTotal,
		RateLimitDeniedTotal,
	)
}

// RegisterRateLimitGauges registers load and rejects gauges for the rate-limited path.
// Call from main after config load with the overload window used by health.
func RegisterRateLimitGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting rate-limited path in sliding window; load/capacity planning",
				},
				func() float64 { return float64(traffic.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window; are we rejecting requests",
				},
				func() float64 { return float64(traffic.DenialCount(window)) },
			),
		)
	})
}

// RecordEvaluation records one evaluation outcome. stage is set for computation errors only.
func RecordEvaluation(outcome, stage string, d time.Duration) {
	EvaluationsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeComputationError && stage != "" {
		EvaluationFailuresTotal.WithLabelValues(stage).Inc()
	}
	if outcome != OutcomeInvalidInput {
		EvaluationDuration.Observe(d.Seconds())
	}
}

// RecordCachedEvaluation records a successful evaluation served from cache. No latency is
// observed since the formula chain did not run.
func RecordCachedEvaluation() {
	EvaluationsTotal.WithLabelValues(OutcomeSuccess).Inc()
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Package telemetry provides OpenTelemetry tracing and Prometheus metrics for
// the tariff classifier.
package telemetry

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "tariff-classifier"

// Cache lookup outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds all tariff classifier Prometheus metrics
type Metrics struct {
	// Classification metrics
	ClassificationsTotal   *prometheus.CounterVec
	ClassificationDuration prometheus.Histogram
	CandidatesReturned     prometheus.Histogram
	FunctionResolved       *prometheus.CounterVec

	// Cache metrics
	CacheRequests *prometheus.CounterVec

	// Batch metrics
	BatchSize     prometheus.Histogram
	ActiveWorkers prometheus.Gauge
	ThrottleCount prometheus.Counter

	// Selection metrics
	SelectionsCreated prometheus.Counter

	LexiconInfo *prometheus.GaugeVec
}

// Provider wraps telemetry providers
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// promauto registers on the default registry, which rejects duplicates.
var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewProvider initializes telemetry with Prometheus metrics.
// Metrics are registered once per process; every Provider shares them.
func NewProvider() *Provider {
	metricsOnce.Do(func() {
		metrics = initMetrics()
	})

	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: metrics,
	}
}

// Handler returns the Prometheus HTTP handler for /metrics endpoint
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initClassificationMetrics(m)
	initCacheMetrics(m)
	initBatchMetrics(m)

	m.SelectionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tariff_selections_created_total",
		Help: "Total HS code selections persisted",
	})

	m.LexiconInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tariff_lexicon_info",
		Help: "Loaded lexicon version and checksum (value is always 1)",
	}, []string{"version", "checksum"})

	return m
}

func initClassificationMetrics(m *Metrics) {
	m.ClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_classifications_total",
		Help: "Total classifications by outcome (matched, empty)",
	}, []string{"outcome"})

	m.ClassificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tariff_classification_duration_seconds",
		Help:    "Time to classify a single description, including cache lookups",
		Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	m.CandidatesReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tariff_candidates_returned",
		Help:    "Number of candidates returned per classification",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	})

	m.FunctionResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_function_resolved_total",
		Help: "Resolved function category per classification (none when unresolved)",
	}, []string{"function"})
}

func initCacheMetrics(m *Metrics) {
	m.CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_cache_requests_total",
		Help: "Result cache lookups by result (hit, miss, error)",
	}, []string{"result"})
}

func initBatchMetrics(m *Metrics) {
	m.BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tariff_batch_size",
		Help:    "Number of descriptions per batch request",
		Buckets: []float64{1, 5, 10, 25, 50, 100},
	})

	m.ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tariff_batch_active_workers",
		Help: "Currently active batch worker goroutines",
	})

	m.ThrottleCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tariff_batch_throttle_total",
		Help: "Number of times a batch worker waited on the rate limiter",
	})
}

// RecordClassification records metrics for a single classification
func (p *Provider) RecordClassification(_ context.Context, function string, candidates int, duration time.Duration) {
	outcome := "matched"
	if candidates == 0 {
		outcome = "empty"
	}
	if function == "" {
		function = "none"
	}
	p.Metrics.ClassificationsTotal.WithLabelValues(outcome).Inc()
	p.Metrics.FunctionResolved.WithLabelValues(function).Inc()
	p.Metrics.CandidatesReturned.Observe(float64(candidates))
	p.Metrics.ClassificationDuration.Observe(duration.Seconds())
}

// RecordCache records a cache lookup result (CacheHit, CacheMiss, CacheError).
func (p *Provider) RecordCache(_ context.Context, result string) {
	p.Metrics.CacheRequests.WithLabelValues(result).Inc()
}

// RecordBatchSize records the size of a processed batch
func (p *Provider) RecordBatchSize(size int) {
	p.Metrics.BatchSize.Observe(float64(size))
}

// AddActiveWorkers adjusts the active worker gauge by delta.
func (p *Provider) AddActiveWorkers(delta int) {
	p.Metrics.ActiveWorkers.Add(float64(delta))
}

// IncrementThrottleCount increments the throttle counter
func (p *Provider) IncrementThrottleCount() {
	p.Metrics.ThrottleCount.Inc()
}

// RecordSelectionCreated counts a persisted selection.
func (p *Provider) RecordSelectionCreated(_ context.Context) {
	p.Metrics.SelectionsCreated.Inc()
}

// SetLexicon publishes the loaded lexicon identity.
func (p *Provider) SetLexicon(version, checksum string) {
	p.Metrics.LexiconInfo.Reset()
	p.Metrics.LexiconInfo.WithLabelValues(version, checksum).Set(1)
}

// StartSpan starts a new trace span.
// The caller is responsible for ending the span with span.End().
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}

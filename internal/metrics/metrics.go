// Package metrics exposes prometheus collectors for recompute and prediction
// traffic. A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "restock"

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Recorder owns a dedicated registry so tests and multiple servers in one
// process never collide on the global one.
type Recorder struct {
	registry *prometheus.Registry

	recomputeTotal     *prometheus.CounterVec
	recomputeDuration  prometheus.Histogram
	predictionsServed  prometheus.Counter
	batchKeysTotal     *prometheus.CounterVec
	httpRequestsTotal  *prometheus.CounterVec
	httpRequestSeconds *prometheus.HistogramVec
}

// New creates a Recorder with the Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		recomputeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recompute_total",
				Help:      "Analytics recomputations by outcome.",
			},
			[]string{"outcome"},
		),
		recomputeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recompute_duration_seconds",
				Help:      "Time spent recomputing one product's analytics.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
		),
		predictionsServed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_served_total",
				Help:      "Recommendations returned by prediction queries.",
			},
		),
		batchKeysTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_keys_total",
				Help:      "Keys processed by the batch recompute job by outcome.",
			},
			[]string{"outcome"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
		httpRequestSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request durations in seconds.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"route", "method"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.recomputeTotal,
		r.recomputeDuration,
		r.predictionsServed,
		r.batchKeysTotal,
		r.httpRequestsTotal,
		r.httpRequestSeconds,
	)
	return r
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) ObserveRecompute(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.recomputeTotal.WithLabelValues(outcome).Inc()
	r.recomputeDuration.Observe(elapsed.Seconds())
}

func (r *Recorder) AddPredictionsServed(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.predictionsServed.Add(float64(n))
}

func (r *Recorder) IncBatchKey(outcome string) {
	if r == nil {
		return
	}
	r.batchKeysTotal.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveHTTPRequest(route, method, status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpRequestsTotal.WithLabelValues(route, method, status).Inc()
	r.httpRequestSeconds.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

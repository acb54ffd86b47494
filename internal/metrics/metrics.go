// Package metrics exposes the engine counters as Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/izabele-1801/agiliza-backend/constants"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
)

const namespace = "agiliza"

// Metrics owns a private registry so tests and multiple servers never
// collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	files      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	attempts   *prometheus.CounterVec
	records    *prometheus.CounterVec
	batches    *prometheus.CounterVec
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	queueDepth prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Documents processed, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Time spent on one document, by kind.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_attempts_total",
			Help:      "Strategy runs, by strategy and result.",
		}, []string{"strategy", "result"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Canonical records emitted, by winning strategy.",
		}, []string{"strategy"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Upload batches, by outcome (ok, partial, failed).",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watch_queue_depth",
			Help:      "Files waiting in the watch-mode queue.",
		}),
	}
	m.registry.MustRegister(
		m.files, m.duration, m.attempts, m.records, m.batches,
		m.requests, m.latency, m.queueDepth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry is the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// FileProcessed implements the pipeline observer.
func (m *Metrics) FileProcessed(kind constants.Kind, outcome string, elapsed time.Duration) {
	k := string(kind)
	if k == "" {
		k = "unknown"
	}
	m.files.WithLabelValues(k, outcome).Inc()
	m.duration.WithLabelValues(k).Observe(elapsed.Seconds())
}

func (m *Metrics) StrategyAttempt(a strategy.Attempt) {
	m.attempts.WithLabelValues(a.Strategy, a.Result).Inc()
}

func (m *Metrics) RecordsEmitted(name string, n int) {
	if n > 0 {
		m.records.WithLabelValues(name).Add(float64(n))
	}
}

// RecordBatch counts an upload batch by how many of its files failed.
func (m *Metrics) RecordBatch(files, failed int) {
	outcome := "ok"
	switch {
	case failed >= files:
		outcome = "failed"
	case failed > 0:
		outcome = "partial"
	}
	m.batches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/jobs"
)

const metricsNamespace = "campus"

// Transition outcomes recorded by RecordTransition.
const (
	TransitionApplied  = "applied"
	TransitionRejected = "rejected"
)

// Cache operations and results recorded by RecordCache.
const (
	CacheOpGet        = "get"
	CacheOpSet        = "set"
	CacheOpInvalidate = "invalidate"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheOK    = "ok"
	CacheError = "error"
)

// MetricsService owns a private Prometheus registry and keeps running totals
// for the JSON snapshot endpoint.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestSeconds *prometheus.HistogramVec
	inFlight       prometheus.Gauge
	cacheOps       *prometheus.CounterVec
	cacheSeconds   *prometheus.HistogramVec
	transitions    *prometheus.CounterVec
	jobs           *prometheus.CounterVec

	totals struct {
		requests      atomic.Uint64
		requestNanos  atomic.Uint64
		cacheHits     atomic.Uint64
		cacheMisses   atomic.Uint64
		applied       atomic.Uint64
		rejected      atomic.Uint64
		jobsProcessed atomic.Uint64
		jobsFailed    atomic.Uint64
	}
}

func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.requestSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method, route template and status code.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route", "status"})
	m.inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Requests currently being served.",
	})
	m.cacheOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "operations_total",
		Help:      "Dashboard cache operations by kind and result.",
	}, []string{"op", "result"})
	m.cacheSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "operation_duration_seconds",
		Help:      "Dashboard cache round trip latency.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	}, []string{"op"})
	m.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "workflow_transitions_total",
		Help:      "Workflow transitions by entity, action and outcome.",
	}, []string{"entity", "action", "outcome"})
	m.jobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "jobs_total",
		Help:      "Background job runs by queue and result.",
	}, []string{"queue", "result"})

	m.registry.MustRegister(
		m.requestSeconds, m.inFlight, m.cacheOps, m.cacheSeconds, m.transitions, m.jobs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: metricsNamespace}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler serves the Prometheus exposition format, or 503 on a nil service.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// TrackInFlight bumps the in-flight gauge and returns the matching release.
func (m *MetricsService) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}

func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestSeconds.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
	m.totals.requests.Add(1)
	m.totals.requestNanos.Add(uint64(duration.Nanoseconds()))
}

func (m *MetricsService) RecordCache(op, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues(op, result).Inc()
	m.cacheSeconds.WithLabelValues(op).Observe(duration.Seconds())
	switch result {
	case CacheHit:
		m.totals.cacheHits.Add(1)
	case CacheMiss:
		m.totals.cacheMisses.Add(1)
	}
}

// RecordTransition counts a workflow transition attempt. err decides the outcome label.
func (m *MetricsService) RecordTransition(entity, action string, err error) {
	if m == nil {
		return
	}
	outcome := TransitionApplied
	if err != nil {
		outcome = TransitionRejected
		m.totals.rejected.Add(1)
	} else {
		m.totals.applied.Add(1)
	}
	m.transitions.WithLabelValues(entity, action, outcome).Inc()
}

// RecordJob counts one handler run. Permanent failures get their own label since
// the queue will not retry them.
func (m *MetricsService) RecordJob(queue string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case jobs.IsPermanent(err):
		result = "abandoned"
	case err != nil:
		result = "failed"
	}
	if err != nil {
		m.totals.jobsFailed.Add(1)
	}
	m.totals.jobsProcessed.Add(1)
	m.jobs.WithLabelValues(queue, result).Inc()
}

// Snapshot returns running totals for the JSON metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits, misses := m.totals.cacheHits.Load(), m.totals.cacheMisses.Load()
	requests := m.totals.requests.Load()

	snap := models.SystemMetrics{
		CacheHits:           hits,
		CacheMisses:         misses,
		RequestsTotal:       requests,
		TransitionsApplied:  m.totals.applied.Load(),
		TransitionsRejected: m.totals.rejected.Load(),
		JobsProcessed:       m.totals.jobsProcessed.Load(),
		JobsFailed:          m.totals.jobsFailed.Load(),
		Goroutines:          runtime.NumGoroutine(),
		GeneratedAt:         time.Now().UTC(),
	}
	if lookups := hits + misses; lookups > 0 {
		snap.CacheHitRatio = float64(hits) / float64(lookups)
	}
	if requests > 0 {
		snap.AverageRequestDurationMs = float64(m.totals.requestNanos.Load()) / float64(requests) / float64(time.Millisecond)
	}
	return snap
}

// Package metrics keeps Prometheus instrumentation for the client's backend calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Match outcomes recorded by ObserveMatch.
const (
	OutcomeSucceeded  = "succeeded"
	OutcomeFailed     = "failed"
	OutcomeInProgress = "in_progress"
)

// Manager owns the collectors. A nil *Manager is valid and records nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	matchRuns       *prometheus.CounterVec
	rankingSize     *prometheus.GaugeVec
}

// NewManager creates a Manager on its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hirectl",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Backend requests by method, route and status class.",
	}, []string{"method", "route", "status"})

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Backend request latency.",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "route"})

	m.matchRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "matching",
		Name:      "runs_total",
		Help:      "Matching runs by outcome.",
	}, []string{"outcome"})

	m.rankingSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "matching",
		Name:      "ranking_entries",
		Help:      "Entries in the last fetched ranking per job.",
	}, []string{"job_id"})

	m.registry.MustRegister(m.requests, m.requestDuration, m.matchRuns, m.rankingSize)

	return m
}

// ObserveRequest records one backend call. status is 0 when no response arrived.
func (m *Manager) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveMatch counts a matching run by outcome.
func (m *Manager) ObserveMatch(outcome string) {
	if m == nil {
		return
	}
	m.matchRuns.WithLabelValues(outcome).Inc()
}

// SetRankingSize records how many entries the ranking for jobID holds.
func (m *Manager) SetRankingSize(jobID, n int) {
	if m == nil {
		return
	}
	m.rankingSize.WithLabelValues(strconv.Itoa(jobID)).Set(float64(n))
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func statusClass(status int) string {
	if status <= 0 {
		return "transport_error"
	}
	return strconv.Itoa(status/100) + "xx"
}

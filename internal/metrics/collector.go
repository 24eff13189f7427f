// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector exposes the orchestration core's prometheus metrics. It owns a
// private registry so repeated construction (tests, embedded use) never
// trips duplicate registration.
type Collector struct {
	registry *prometheus.Registry

	turnsTotal     *prometheus.CounterVec
	turnDuration   *prometheus.HistogramVec
	activeSessions prometheus.Gauge
	warmingOutcome *prometheus.CounterVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter

	logger *zap.Logger
}

// NewCollector creates a collector under the given namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	c := &Collector{
		registry: registry,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.turnsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversation_turns_total",
			Help:      "Total number of processed conversation turns",
		},
		[]string{"workflow", "outcome"},
	)

	c.turnDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversation_turn_duration_seconds",
			Help:      "Conversation turn duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"workflow"},
	)

	c.activeSessions = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live conversation sessions",
		},
	)

	c.warmingOutcome = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warming_tasks_total",
			Help:      "Cache warming task outcomes",
		},
		[]string{"outcome"},
	)

	c.cacheHits = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_hits_total",
			Help:      "Response cache hits",
		},
	)

	c.cacheMisses = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_misses_total",
			Help:      "Response cache misses",
		},
	)

	return c
}

// RecordTurn records one completed process() call.
func (c *Collector) RecordTurn(workflow string, elapsed time.Duration, failed bool) {
	if workflow == "" {
		workflow = "none"
	}
	outcome := "success"
	if failed {
		outcome = "fallback"
	}
	c.turnsTotal.WithLabelValues(workflow, outcome).Inc()
	c.turnDuration.WithLabelValues(workflow).Observe(elapsed.Seconds())
}

// RecordWarmingOutcome records one settled warming task.
func (c *Collector) RecordWarmingOutcome(outcome string) {
	c.warmingOutcome.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup records a response cache hit or miss.
func (c *Collector) RecordCacheLookup(hit bool) {
	if hit {
		c.cacheHits.Inc()
	} else {
		c.cacheMisses.Inc()
	}
}

// SetActiveSessions updates the live session gauge.
func (c *Collector) SetActiveSessions(n int) {
	c.activeSessions.Set(float64(n))
}

// Handler returns the scrape endpoint handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

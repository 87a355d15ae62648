// Package metrics provides Prometheus metrics export for the API server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter collects server metrics and serves them in Prometheus format.
type Exporter struct {
	registry *prometheus.Registry

	// HTTP metrics
	requestLatency *prometheus.HistogramVec
	requests       *prometheus.CounterVec

	// Analytics metrics
	overviewLatency prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	// Chat metrics
	chatLatency prometheus.Histogram
	chatDenied  prometheus.Counter

	// Reminder metrics
	remindersSent prometheus.Counter
}

// New creates an exporter backed by its own registry.
func New() *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{
		registry: registry,
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "echo",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "path", "status"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "echo",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		overviewLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "echo",
				Subsystem: "analytics",
				Name:      "overview_duration_seconds",
				Help:      "Analytics overview computation latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "echo",
				Subsystem: "analytics",
				Name:      "cache_hits_total",
				Help:      "Analytics overview cache hits",
			},
		),
		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "echo",
				Subsystem: "analytics",
				Name:      "cache_misses_total",
				Help:      "Analytics overview cache misses",
			},
		),
		chatLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "echo",
				Subsystem: "chat",
				Name:      "response_duration_seconds",
				Help:      "Chat response latency in seconds",
				Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
		),
		chatDenied: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "echo",
				Subsystem: "chat",
				Name:      "rate_limited_total",
				Help:      "Chat requests rejected by the rate limiter",
			},
		),
		remindersSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "echo",
				Subsystem: "reminder",
				Name:      "sent_total",
				Help:      "Event reminders dispatched",
			},
		),
	}

	registry.MustRegister(
		e.requestLatency,
		e.requests,
		e.overviewLatency,
		e.cacheHits,
		e.cacheMisses,
		e.chatLatency,
		e.chatDenied,
		e.remindersSent,
	)
	return e
}

// Handler serves the /metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed HTTP request.
func (e *Exporter) ObserveRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	e.requestLatency.WithLabelValues(labels...).Observe(duration.Seconds())
	e.requests.WithLabelValues(labels...).Inc()
}

// ObserveOverview records one analytics overview computation.
func (e *Exporter) ObserveOverview(duration time.Duration) {
	e.overviewLatency.Observe(duration.Seconds())
}

// CacheHit counts an analytics cache hit.
func (e *Exporter) CacheHit() { e.cacheHits.Inc() }

// CacheMiss counts an analytics cache miss.
func (e *Exporter) CacheMiss() { e.cacheMisses.Inc() }

// ObserveChat records one chat response.
func (e *Exporter) ObserveChat(duration time.Duration) {
	e.chatLatency.Observe(duration.Seconds())
}

// ChatRateLimited counts a rejected chat request.
func (e *Exporter) ChatRateLimited() { e.chatDenied.Inc() }

// ReminderSent counts a dispatched event reminder.
func (e *Exporter) ReminderSent() { e.remindersSent.Inc() }

package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics stores Prometheus collectors used by the API, queue, and health
// monitor. All methods are safe on a nil receiver so instrumentation stays
// optional in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	jobsEnqueuedTotal   *prometheus.CounterVec
	jobsSentTotal       *prometheus.CounterVec
	jobsFailedTotal     *prometheus.CounterVec
	retryScheduledTotal *prometheus.CounterVec
	sendDuration        *prometheus.HistogramVec
	jobsInflight        prometheus.Gauge
	providerHealthy     *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "leadnotify",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "leadnotify",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		jobsEnqueuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "leadnotify",
				Name:      "jobs_enqueued_total",
				Help:      "Total number of notification jobs accepted into the queue.",
			},
			[]string{"priority"},
		),
		jobsSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "leadnotify",
				Name:      "jobs_sent_total",
				Help:      "Total number of jobs delivered successfully.",
			},
			[]string{"provider"},
		),
		jobsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "leadnotify",
				Name:      "jobs_failed_total",
				Help:      "Total number of jobs that ended in failed state.",
			},
			[]string{"provider", "reason"},
		),
		retryScheduledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "leadnotify",
				Name:      "retry_scheduled_total",
				Help:      "Total number of job attempts rescheduled with backoff.",
			},
			[]string{"provider"},
		),
		sendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "leadnotify",
				Name:      "send_duration_seconds",
				Help:      "Provider send duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"provider"},
		),
		jobsInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "leadnotify",
				Name:      "jobs_inflight",
				Help:      "Current number of jobs being dispatched.",
			},
		),
		providerHealthy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "leadnotify",
				Name:      "provider_healthy",
				Help:      "Provider health as reported by the monitor (1 healthy, 0 unhealthy).",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.jobsEnqueuedTotal,
		m.jobsSentTotal,
		m.jobsFailedTotal,
		m.retryScheduledTotal,
		m.sendDuration,
		m.jobsInflight,
		m.providerHealthy,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FiberHandler exposes the registry as a fiber route for the /metrics
// endpoint.
func (m *Metrics) FiberHandler() fiber.Handler {
	wrapped := fasthttpadaptor.NewFastHTTPHandler(m.Handler())
	return func(c *fiber.Ctx) error {
		wrapped(c.Context())
		return nil
	}
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncJobEnqueued(priority string) {
	if m == nil {
		return
	}
	m.jobsEnqueuedTotal.WithLabelValues(normalizeLabel(priority)).Inc()
}

func (m *Metrics) IncJobSent(provider string) {
	if m == nil {
		return
	}
	m.jobsSentTotal.WithLabelValues(normalizeLabel(provider)).Inc()
}

func (m *Metrics) IncJobFailed(provider string, reason string) {
	if m == nil {
		return
	}
	m.jobsFailedTotal.WithLabelValues(normalizeLabel(provider), normalizeLabel(reason)).Inc()
}

func (m *Metrics) IncRetryScheduled(provider string) {
	if m == nil {
		return
	}
	m.retryScheduledTotal.WithLabelValues(normalizeLabel(provider)).Inc()
}

func (m *Metrics) ObserveSendDuration(provider string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.sendDuration.WithLabelValues(normalizeLabel(provider)).Observe(seconds)
}

func (m *Metrics) IncJobsInFlight() {
	if m == nil {
		return
	}
	m.jobsInflight.Inc()
}

func (m *Metrics) DecJobsInFlight() {
	if m == nil {
		return
	}
	m.jobsInflight.Dec()
}

func (m *Metrics) SetProviderHealth(provider string, healthy bool) {
	if m == nil {
		return
	}
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.providerHealthy.WithLabelValues(normalizeLabel(provider)).Set(value)
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}
	return c.Response().StatusCode()
}

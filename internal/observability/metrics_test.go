package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsQueueCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncJobEnqueued("HIGH")
	metrics.IncJobSent("webhook")
	metrics.IncJobFailed("webhook", "max_attempts")
	metrics.IncRetryScheduled("webhook")
	metrics.ObserveSendDuration("webhook", 120*time.Millisecond)
	metrics.IncJobsInFlight()
	metrics.DecJobsInFlight()
	metrics.SetProviderHealth("Webhook", true)

	if got := testutil.ToFloat64(metrics.jobsEnqueuedTotal.WithLabelValues("high")); got != 1 {
		t.Fatalf("jobs_enqueued_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.jobsSentTotal.WithLabelValues("webhook")); got != 1 {
		t.Fatalf("jobs_sent_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.jobsFailedTotal.WithLabelValues("webhook", "max_attempts")); got != 1 {
		t.Fatalf("jobs_failed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.retryScheduledTotal.WithLabelValues("webhook")); got != 1 {
		t.Fatalf("retry_scheduled_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.jobsInflight); got != 0 {
		t.Fatalf("jobs_inflight = %v, want 0", got)
	}
	// Labels are normalized to lowercase.
	if got := testutil.ToFloat64(metrics.providerHealthy.WithLabelValues("webhook")); got != 1 {
		t.Fatalf("provider_healthy = %v, want 1", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var metrics *Metrics
	metrics.IncJobEnqueued("HIGH")
	metrics.IncJobSent("webhook")
	metrics.IncJobFailed("webhook", "reason")
	metrics.IncRetryScheduled("webhook")
	metrics.ObserveSendDuration("webhook", time.Second)
	metrics.IncJobsInFlight()
	metrics.DecJobsInFlight()
	metrics.SetProviderHealth("webhook", false)
}

func TestMetricsHTTPMiddlewareRecordsRequest(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/livez", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/livez", "200")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}

func TestMetricsHTTPMiddlewareRecordsErrorStatus(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	if _, err := app.Test(req); err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/boom", "500")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}

func TestMetricsHTTPMiddlewareSkipsMetricsEndpoint(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", metrics.FiberHandler())

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/metrics", "200")); got != 0 {
		t.Fatalf("http_requests_total for /metrics = %v, want 0", got)
	}
}

func TestMetricsFiberHandlerServesRegistry(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	metrics.IncJobSent("webhook")

	app := fiber.New()
	app.Get("/metrics", metrics.FiberHandler())

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "leadnotify_jobs_sent_total") {
		t.Error("exposition should contain the queue counters")
	}
}

package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/viajora/leadnotify/internal/domain"
)

type staticAdapter struct {
	desc Descriptor
}

func (a staticAdapter) Descriptor() Descriptor { return a.desc }

func (a staticAdapter) Send(ctx context.Context, msg Message) (*SendResult, error) {
	return &SendResult{MessageID: "msg", Provider: a.desc.Name}, nil
}

func (a staticAdapter) Probe(ctx context.Context) error { return nil }

func newStatic(name string, priority, rateLimit int) staticAdapter {
	return staticAdapter{desc: Descriptor{Name: name, Priority: priority, RateLimit: rateLimit}}
}

func TestPoolAdaptersStartUnhealthy(t *testing.T) {
	t.Parallel()

	pool, err := NewPool(newStatic("webhook", 3, 100))
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	if pool.IsHealthy("webhook") {
		t.Error("adapters must start unhealthy")
	}
	if _, err := pool.Pick(""); !errors.Is(err, domain.ErrNoHealthyProvider) {
		t.Errorf("Pick() error = %v, want ErrNoHealthyProvider", err)
	}
}

func TestPoolPickHighestPriority(t *testing.T) {
	t.Parallel()

	pool, err := NewPool(
		newStatic("smtp", 1, 60),
		newStatic("webhook", 3, 100),
		newStatic("resend", 2, 100),
	)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	now := time.Now()
	pool.SetHealth("smtp", true, now)
	pool.SetHealth("webhook", true, now)
	pool.SetHealth("resend", true, now)

	picked, err := pool.Pick("")
	if err != nil {
		t.Fatalf("Pick() error = %v", err)
	}
	if picked.Descriptor().Name != "webhook" {
		t.Errorf("Pick() = %s, want the highest priority adapter", picked.Descriptor().Name)
	}

	// Highest priority drops out, next one takes over.
	pool.SetHealth("webhook", false, now)
	picked, err = pool.Pick("")
	if err != nil {
		t.Fatalf("Pick() error = %v", err)
	}
	if picked.Descriptor().Name != "resend" {
		t.Errorf("Pick() = %s, want resend after webhook went down", picked.Descriptor().Name)
	}
}

func TestPoolPickRateLimitTieBreak(t *testing.T) {
	t.Parallel()

	pool, err := NewPool(
		newStatic("resend", 2, 100),
		newStatic("sendgrid", 2, 200),
	)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	now := time.Now()
	pool.SetHealth("resend", true, now)
	pool.SetHealth("sendgrid", true, now)

	picked, err := pool.Pick("")
	if err != nil {
		t.Fatalf("Pick() error = %v", err)
	}
	if picked.Descriptor().Name != "sendgrid" {
		t.Errorf("Pick() = %s, want the higher rate limit on a priority tie", picked.Descriptor().Name)
	}
}

func TestPoolPickPreferred(t *testing.T) {
	t.Parallel()

	pool, err := NewPool(
		newStatic("webhook", 3, 100),
		newStatic("smtp", 1, 60),
	)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	now := time.Now()
	pool.SetHealth("webhook", true, now)
	pool.SetHealth("smtp", true, now)

	picked, err := pool.Pick("smtp")
	if err != nil {
		t.Fatalf("Pick() error = %v", err)
	}
	if picked.Descriptor().Name != "smtp" {
		t.Errorf("Pick(smtp) = %s, preferred provider must win", picked.Descriptor().Name)
	}

	// Unhealthy preferred falls back to the best healthy adapter.
	pool.SetHealth("smtp", false, now)
	picked, err = pool.Pick("smtp")
	if err != nil {
		t.Fatalf("Pick() error = %v", err)
	}
	if picked.Descriptor().Name != "webhook" {
		t.Errorf("Pick(smtp) with smtp down = %s, want webhook", picked.Descriptor().Name)
	}
}

func TestPoolSetHealthUnknownProvider(t *testing.T) {
	t.Parallel()

	pool, err := NewPool(newStatic("webhook", 3, 100))
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	pool.SetHealth("sendgrid", true, time.Now())
	if pool.IsHealthy("sendgrid") {
		t.Error("unknown provider must not be registered through SetHealth")
	}
}

func TestPoolHealthReturnsLastCheck(t *testing.T) {
	t.Parallel()

	pool, err := NewPool(newStatic("webhook", 3, 100))
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	checkedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	pool.SetHealth("webhook", true, checkedAt)

	status, ok := pool.Health("webhook")
	if !ok {
		t.Fatal("Health() should find the adapter")
	}
	if !status.Healthy || !status.LastCheck.Equal(checkedAt) {
		t.Errorf("Health() = %+v", status)
	}

	if _, ok := pool.Health("missing"); ok {
		t.Error("Health() should miss unknown adapters")
	}
}

func TestNewPoolValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewPool(); err == nil {
		t.Error("empty pool should fail")
	}
	if _, err := NewPool(newStatic("", 1, 1)); err == nil {
		t.Error("unnamed adapter should fail")
	}
	if _, err := NewPool(newStatic("webhook", 1, 1), newStatic("webhook", 2, 2)); err == nil {
		t.Error("duplicate adapter names should fail")
	}
}

package provider

import (
	"context"
	"time"
)

// Message is a fully rendered email handed to an adapter for delivery.
type Message struct {
	JobID   string
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
	Tags    []string
}

// SendResult stores delivery call metadata for audit and analytics.
type SendResult struct {
	MessageID   string
	Provider    string
	DeliveredAt time.Time
	StatusCode  int
}

// Descriptor is the read-only view of a delivery channel used for provider
// selection.
type Descriptor struct {
	Name string
	// Priority orders otherwise-equal healthy providers. Higher wins.
	Priority int
	// RateLimit is the advisory messages-per-minute budget, used as the
	// selection tie breaker.
	RateLimit int
}

// Adapter is the outbound delivery port. Implementations are thin shims over
// one transport and must not retry internally; retry policy lives in the
// queue. Send must convert transport failures to errors, never panic.
type Adapter interface {
	Descriptor() Descriptor
	Send(ctx context.Context, msg Message) (*SendResult, error)
	// Probe is a side-effect-free availability check. It must never consume
	// a send attempt or deliver anything.
	Probe(ctx context.Context) error
}

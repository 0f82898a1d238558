package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/viajora/leadnotify/internal/provider"
)

type probeAdapter struct {
	name string

	mu       sync.Mutex
	probeErr error
	probes   int
}

func (a *probeAdapter) Descriptor() provider.Descriptor {
	return provider.Descriptor{Name: a.name, Priority: 1, RateLimit: 100}
}

func (a *probeAdapter) Send(ctx context.Context, msg provider.Message) (*provider.SendResult, error) {
	return &provider.SendResult{MessageID: "msg", Provider: a.name}, nil
}

func (a *probeAdapter) Probe(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.probes++
	return a.probeErr
}

func (a *probeAdapter) setProbeErr(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.probeErr = err
}

func (a *probeAdapter) probeCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.probes
}

func TestProbeAllMarksHealth(t *testing.T) {
	t.Parallel()

	up := &probeAdapter{name: "webhook"}
	down := &probeAdapter{name: "smtp", probeErr: errors.New("dial tcp: connection refused")}

	pool, err := provider.NewPool(up, down)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	monitor, err := NewHealthMonitor(pool, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewHealthMonitor() error = %v", err)
	}

	// Adapters start unhealthy until the first probe says otherwise.
	if pool.IsHealthy("webhook") {
		t.Fatal("webhook must start unhealthy")
	}

	monitor.probeAll(context.Background())

	if !pool.IsHealthy("webhook") {
		t.Error("webhook should be healthy after a successful probe")
	}
	if pool.IsHealthy("smtp") {
		t.Error("smtp should stay unhealthy after a failed probe")
	}
}

func TestProbeAllRecovers(t *testing.T) {
	t.Parallel()

	adapter := &probeAdapter{name: "resend", probeErr: errors.New("503")}
	pool, err := provider.NewPool(adapter)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	monitor, err := NewHealthMonitor(pool, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewHealthMonitor() error = %v", err)
	}

	monitor.probeAll(context.Background())
	if pool.IsHealthy("resend") {
		t.Fatal("resend should be unhealthy while probes fail")
	}

	adapter.setProbeErr(nil)
	monitor.probeAll(context.Background())
	if !pool.IsHealthy("resend") {
		t.Error("resend should recover once probes succeed")
	}
}

func TestStartProbesImmediately(t *testing.T) {
	t.Parallel()

	adapter := &probeAdapter{name: "webhook"}
	pool, err := provider.NewPool(adapter)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	// Long interval so only the initial probe can run during the test.
	monitor, err := NewHealthMonitor(pool, time.Hour, nil)
	if err != nil {
		t.Fatalf("NewHealthMonitor() error = %v", err)
	}

	monitor.Start(context.Background())
	defer monitor.Stop()

	deadline := time.After(2 * time.Second)
	for adapter.probeCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("Start() should probe before the first ticker edge")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if !pool.IsHealthy("webhook") {
		t.Error("initial probe should mark the provider healthy")
	}
}

func TestHealthMonitorStartStopIdempotent(t *testing.T) {
	t.Parallel()

	pool, err := provider.NewPool(&probeAdapter{name: "webhook"})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	monitor, err := NewHealthMonitor(pool, time.Hour, nil)
	if err != nil {
		t.Fatalf("NewHealthMonitor() error = %v", err)
	}

	monitor.Stop() // before Start is a no-op

	monitor.Start(context.Background())
	monitor.Start(context.Background())
	monitor.Stop()
	monitor.Stop()

	// An immediate Stop after Start must not race the loop goroutine's
	// shutdown signalling.
	for i := 0; i < 100; i++ {
		monitor.Start(context.Background())
		monitor.Stop()
	}
}

func TestNewHealthMonitorRequiresPool(t *testing.T) {
	t.Parallel()

	if _, err := NewHealthMonitor(nil, time.Minute, nil); err == nil {
		t.Error("NewHealthMonitor(nil pool) should fail")
	}
}

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viajora/leadnotify/internal/observability"
	"github.com/viajora/leadnotify/internal/provider"
	"go.uber.org/zap"
)

const (
	defaultHealthCheckInterval = 60 * time.Second
	defaultProbeTimeout        = 5 * time.Second
)

// HealthMonitor periodically probes every adapter and is the only writer of
// provider health. Probes are side-effect-free and never consume a send
// attempt.
type HealthMonitor struct {
	pool     *provider.Pool
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewHealthMonitor(pool *provider.Pool, interval time.Duration, logger *zap.Logger) (*HealthMonitor, error) {
	if pool == nil {
		return nil, fmt.Errorf("provider pool is required")
	}
	if interval <= 0 {
		interval = defaultHealthCheckInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HealthMonitor{
		pool:     pool,
		interval: interval,
		timeout:  defaultProbeTimeout,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (m *HealthMonitor) SetMetrics(metrics *observability.Metrics) {
	if m == nil {
		return
	}
	m.metrics = metrics
}

// Start probes immediately so providers become usable before the first
// ticker edge, then re-probes on the interval. Idempotent.
func (m *HealthMonitor) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go m.run(runCtx, done)
}

// Stop cancels the probe loop. Safe to call multiple times and before Start.
func (m *HealthMonitor) Stop() {
	m.lifecycleMu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.lifecycleMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// run owns the done channel it was handed: Stop nils the struct field before
// waiting, so closing through the field would race.
func (m *HealthMonitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	m.probeAll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeAll(ctx)
		}
	}
}

func (m *HealthMonitor) probeAll(ctx context.Context) {
	for _, adapter := range m.pool.Adapters() {
		name := adapter.Descriptor().Name

		probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := adapter.Probe(probeCtx)
		cancel()

		healthy := err == nil
		wasHealthy := m.pool.IsHealthy(name)
		m.pool.SetHealth(name, healthy, m.now())
		m.metrics.SetProviderHealth(name, healthy)

		if healthy == wasHealthy {
			continue
		}
		if healthy {
			m.logger.Info("provider became healthy", zap.String("provider", name))
		} else {
			m.logger.Warn("provider became unhealthy",
				zap.String("provider", name),
				zap.Error(err),
			)
		}
	}
}

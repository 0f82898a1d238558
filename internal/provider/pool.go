package provider

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/viajora/leadnotify/internal/domain"
)

// HealthStatus is the monitor-maintained availability state of one adapter.
type HealthStatus struct {
	Healthy   bool
	LastCheck time.Time
}

// Pool holds the registered adapters together with their health state. The
// queue reads health through Pick and IsHealthy; only the health monitor
// writes it via SetHealth. Adapters start unhealthy until the first probe.
type Pool struct {
	mu       sync.RWMutex
	adapters []Adapter
	health   map[string]HealthStatus
}

func NewPool(adapters ...Adapter) (*Pool, error) {
	if len(adapters) == 0 {
		return nil, fmt.Errorf("at least one adapter is required")
	}

	health := make(map[string]HealthStatus, len(adapters))
	for _, a := range adapters {
		name := a.Descriptor().Name
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("adapter name must not be empty")
		}
		if _, exists := health[name]; exists {
			return nil, fmt.Errorf("duplicate adapter name %q", name)
		}
		health[name] = HealthStatus{}
	}

	return &Pool{adapters: adapters, health: health}, nil
}

func (p *Pool) Adapters() []Adapter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Adapter, len(p.adapters))
	copy(out, p.adapters)
	return out
}

func (p *Pool) IsHealthy(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health[name].Healthy
}

func (p *Pool) Health(name string) (HealthStatus, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	status, ok := p.health[name]
	return status, ok
}

// SetHealth records a probe outcome. The health monitor is the only caller.
func (p *Pool) SetHealth(name string, healthy bool, checkedAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.health[name]; !ok {
		return
	}
	p.health[name] = HealthStatus{Healthy: healthy, LastCheck: checkedAt}
}

// Pick selects the adapter for a dispatch. An explicitly preferred provider
// wins when healthy; otherwise the healthy adapter with the highest priority
// is chosen, ties broken by the highest advisory rate limit. Returns
// domain.ErrNoHealthyProvider when nothing is usable.
func (p *Pool) Pick(preferred string) (Adapter, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	preferred = strings.TrimSpace(preferred)
	if preferred != "" {
		for _, a := range p.adapters {
			if a.Descriptor().Name == preferred && p.health[preferred].Healthy {
				return a, nil
			}
		}
	}

	var best Adapter
	for _, a := range p.adapters {
		desc := a.Descriptor()
		if !p.health[desc.Name].Healthy {
			continue
		}
		if best == nil {
			best = a
			continue
		}
		bestDesc := best.Descriptor()
		if desc.Priority > bestDesc.Priority ||
			(desc.Priority == bestDesc.Priority && desc.RateLimit > bestDesc.RateLimit) {
			best = a
		}
	}

	if best == nil {
		return nil, domain.ErrNoHealthyProvider
	}
	return best, nil
}

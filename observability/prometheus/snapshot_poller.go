package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Vivek89/hawtdispatch/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// DispatcherProvider supplies per-interval queue snapshots and pool stats.
// *core.Dispatcher satisfies it.
type DispatcherProvider interface {
	Metrics() []core.QueueMetrics
	PoolStats() core.PoolStats
}

// SnapshotPoller periodically drains Dispatcher.Metrics() into a
// MetricsExporter. Because queue snapshots reset on read, exactly one
// consumer should poll a given dispatcher.
type SnapshotPoller struct {
	interval time.Duration
	exporter *MetricsExporter

	providersMu sync.RWMutex
	providers   []DispatcherProvider

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a poller and registers the exporter collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if interval <= 0 {
		interval = time.Second
	}

	exporter, err := NewMetricsExporter("", reg)
	if err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval: interval,
		exporter: exporter,
	}, nil
}

// AddDispatcher adds a dispatcher to poll.
func (p *SnapshotPoller) AddDispatcher(provider DispatcherProvider) {
	if p == nil || provider == nil {
		return
	}
	p.providersMu.Lock()
	p.providers = append(p.providers, provider)
	p.providersMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.providersMu.RLock()
	providers := make([]DispatcherProvider, len(p.providers))
	copy(providers, p.providers)
	p.providersMu.RUnlock()

	for _, provider := range providers {
		for _, snapshot := range provider.Metrics() {
			p.exporter.RecordQueue(snapshot)
		}
		p.exporter.RecordPool(provider.PoolStats())
	}
}

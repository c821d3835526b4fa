package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-dispatcher/core"
	"github.com/coder/quartz"
	prom "github.com/prometheus/client_golang/prometheus"
)

// StatsSource provides snapshots of a foreground runner and its pool.
// *dispatcher.Dispatcher implements it.
type StatsSource interface {
	Stats() (core.RunnerStats, core.PoolStats)
}

// SnapshotPoller periodically exports StatsSource snapshots into Prometheus gauges.
// Gauges are labelled by role rather than pool id so they survive pool resets.
type SnapshotPoller struct {
	interval time.Duration
	clock    quartz.Clock
	source   StatsSource

	foregroundPending  prom.Gauge
	foregroundRunning  prom.Gauge
	foregroundExecuted prom.Gauge
	foregroundPanicked prom.Gauge
	foregroundClosed   prom.Gauge

	poolQueued   prom.Gauge
	poolActive   prom.Gauge
	poolWorkers  prom.Gauge
	poolRejected prom.Gauge
	poolRunning  prom.Gauge

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// PollerOptions configures a SnapshotPoller.
type PollerOptions struct {
	Namespace string
	Interval  time.Duration
	Clock     quartz.Clock
}

// NewSnapshotPoller creates a snapshot poller for source and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, source StatsSource, opts PollerOptions) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if opts.Namespace == "" {
		opts.Namespace = "dispatcher"
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}

	gauge := func(name, help string) (prom.Gauge, error) {
		return registerCollector(reg, prom.NewGauge(prom.GaugeOpts{
			Namespace: opts.Namespace,
			Name:      name,
			Help:      help,
		}))
	}

	p := &SnapshotPoller{
		interval: opts.Interval,
		clock:    opts.Clock,
		source:   source,
	}

	specs := []struct {
		dst  *prom.Gauge
		name string
		help string
	}{
		{&p.foregroundPending, "foreground_pending", "Tasks waiting on the foreground runner."},
		{&p.foregroundRunning, "foreground_running", "Tasks executing on the foreground runner."},
		{&p.foregroundExecuted, "foreground_executed", "Tasks executed by the foreground runner."},
		{&p.foregroundPanicked, "foreground_panicked", "Foreground tasks that panicked."},
		{&p.foregroundClosed, "foreground_closed", "Foreground runner closed state (1=closed, 0=open)."},
		{&p.poolQueued, "pool_queued", "Tasks queued on the background pool."},
		{&p.poolActive, "pool_active", "Tasks executing on the background pool."},
		{&p.poolWorkers, "pool_workers", "Worker count of the background pool."},
		{&p.poolRejected, "pool_rejected", "Tasks rejected by the current background pool."},
		{&p.poolRunning, "pool_running", "Background pool running state (1=running, 0=stopped)."},
	}
	for _, s := range specs {
		g, err := gauge(s.name, s.help)
		if err != nil {
			return nil, err
		}
		*s.dst = g
	}

	return p, nil
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil || p.source == nil {
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

	ticker := p.clock.NewTicker(p.interval, "snapshot-poller")
	defer ticker.Stop()

	p.CollectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.CollectOnce()
		}
	}
}

// CollectOnce copies one snapshot into the gauges.
func (p *SnapshotPoller) CollectOnce() {
	rs, ps := p.source.Stats()

	p.foregroundPending.Set(float64(rs.Pending))
	p.foregroundRunning.Set(float64(rs.Running))
	p.foregroundExecuted.Set(float64(rs.Executed))
	p.foregroundPanicked.Set(float64(rs.Panicked))
	p.foregroundClosed.Set(boolGauge(rs.Closed))

	p.poolQueued.Set(float64(ps.Queued))
	p.poolActive.Set(float64(ps.Active))
	p.poolWorkers.Set(float64(ps.Workers))
	p.poolRejected.Set(float64(ps.Rejected))
	p.poolRunning.Set(boolGauge(ps.Running))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

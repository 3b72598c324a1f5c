package prometheus

import (
	"context"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hsinwei/go-periodic-runner/core"
)

// RunnerSnapshotProvider provides current runner stats snapshots.
// *core.PeriodicRunner satisfies it.
type RunnerSnapshotProvider interface {
	Stats() core.RunnerStats
}

// SnapshotPoller periodically exports runner Stats() snapshots into
// Prometheus gauges. It complements MetricsExporter: the exporter records
// events as they happen, the poller publishes current state and counter
// values even for runners that sit idle between scrapes.
type SnapshotPoller struct {
	interval time.Duration

	runnersMu sync.RWMutex
	runners   map[string]RunnerSnapshotProvider

	runnerState          *prom.GaugeVec
	runnerPaused         *prom.GaugeVec
	runnerStopped        *prom.GaugeVec
	runnerInvocations    *prom.GaugeVec
	runnerCoalesced      *prom.GaugeVec
	runnerDroppedPaused  *prom.GaugeVec
	runnerDroppedPending *prom.GaugeVec
	runnerFailures       *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	runnerState := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "periodicrunner",
		Name:      "snapshot_state",
		Help:      "Run state snapshot (0=idle, 1=running, 2=running_pending).",
	}, []string{"runner"})
	runnerPaused := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "periodicrunner",
		Name:      "snapshot_paused",
		Help:      "Pause flag snapshot (1=paused, 0=active).",
	}, []string{"runner"})
	runnerStopped := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "periodicrunner",
		Name:      "snapshot_stopped",
		Help:      "Teardown state snapshot (1=stopped, 0=live).",
	}, []string{"runner"})
	runnerInvocations := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "periodicrunner",
		Name:      "snapshot_invocations_total",
		Help:      "Run invocation count snapshot.",
	}, []string{"runner"})
	runnerCoalesced := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "periodicrunner",
		Name:      "snapshot_coalesced_total",
		Help:      "Coalesced tick count snapshot.",
	}, []string{"runner"})
	runnerDroppedPaused := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "periodicrunner",
		Name:      "snapshot_dropped_paused_total",
		Help:      "Ticks dropped while paused, snapshot.",
	}, []string{"runner"})
	runnerDroppedPending := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "periodicrunner",
		Name:      "snapshot_dropped_pending_total",
		Help:      "Pending runs dropped at completion time, snapshot.",
	}, []string{"runner"})
	runnerFailures := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "periodicrunner",
		Name:      "snapshot_failures_total",
		Help:      "Failed run count snapshot (panics included separately).",
	}, []string{"runner", "kind"})

	var err error
	if runnerState, err = registerCollector(reg, runnerState); err != nil {
		return nil, err
	}
	if runnerPaused, err = registerCollector(reg, runnerPaused); err != nil {
		return nil, err
	}
	if runnerStopped, err = registerCollector(reg, runnerStopped); err != nil {
		return nil, err
	}
	if runnerInvocations, err = registerCollector(reg, runnerInvocations); err != nil {
		return nil, err
	}
	if runnerCoalesced, err = registerCollector(reg, runnerCoalesced); err != nil {
		return nil, err
	}
	if runnerDroppedPaused, err = registerCollector(reg, runnerDroppedPaused); err != nil {
		return nil, err
	}
	if runnerDroppedPending, err = registerCollector(reg, runnerDroppedPending); err != nil {
		return nil, err
	}
	if runnerFailures, err = registerCollector(reg, runnerFailures); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:             interval,
		runners:              make(map[string]RunnerSnapshotProvider),
		runnerState:          runnerState,
		runnerPaused:         runnerPaused,
		runnerStopped:        runnerStopped,
		runnerInvocations:    runnerInvocations,
		runnerCoalesced:      runnerCoalesced,
		runnerDroppedPaused:  runnerDroppedPaused,
		runnerDroppedPending: runnerDroppedPending,
		runnerFailures:       runnerFailures,
	}, nil
}

// AddRunner adds or replaces a runner snapshot provider by name.
func (p *SnapshotPoller) AddRunner(name string, provider RunnerSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "runner")
	p.runnersMu.Lock()
	p.runners[name] = provider
	p.runnersMu.Unlock()
}

// RemoveRunner removes a provider by name.
func (p *SnapshotPoller) RemoveRunner(name string) {
	if p == nil {
		return
	}
	name = normalizeLabel(name, "runner")
	p.runnersMu.Lock()
	delete(p.runners, name)
	p.runnersMu.Unlock()
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
	p.runnersMu.RLock()
	defer p.runnersMu.RUnlock()

	for name, provider := range p.runners {
		stats := provider.Stats()
		p.runnerState.WithLabelValues(name).Set(float64(stats.State))
		p.runnerPaused.WithLabelValues(name).Set(boolGauge(stats.Paused))
		p.runnerStopped.WithLabelValues(name).Set(boolGauge(stats.Stopped))
		p.runnerInvocations.WithLabelValues(name).Set(float64(stats.Invocations))
		p.runnerCoalesced.WithLabelValues(name).Set(float64(stats.Coalesced))
		p.runnerDroppedPaused.WithLabelValues(name).Set(float64(stats.DroppedPaused))
		p.runnerDroppedPending.WithLabelValues(name).Set(float64(stats.DroppedPending))
		p.runnerFailures.WithLabelValues(name, "error").Set(float64(stats.Failures))
		p.runnerFailures.WithLabelValues(name, "panic").Set(float64(stats.Panics))
	}
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

package prometheus

import (
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hsinwei/go-periodic-runner/core"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	runDurationSeconds   *prom.HistogramVec
	runTotal             *prom.CounterVec
	signalCoalescedTotal *prom.CounterVec
	signalDroppedTotal   *prom.CounterVec
	runnerState          *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "periodicrunner"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Run duration in seconds.",
		Buckets:   buckets,
	}, []string{"runner"})
	runVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "run_total",
		Help:      "Total number of completed runs by outcome.",
	}, []string{"runner", "outcome"})
	coalescedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "signal_coalesced_total",
		Help:      "Total number of ticks absorbed into an already pending run.",
	}, []string{"runner"})
	droppedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "signal_dropped_total",
		Help:      "Total number of discarded ticks and pending runs.",
	}, []string{"runner", "reason"})
	stateVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "runner_state",
		Help:      "Current run state (0=idle, 1=running, 2=running_pending).",
	}, []string{"runner"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if runVec, err = registerCollector(reg, runVec); err != nil {
		return nil, err
	}
	if coalescedVec, err = registerCollector(reg, coalescedVec); err != nil {
		return nil, err
	}
	if droppedVec, err = registerCollector(reg, droppedVec); err != nil {
		return nil, err
	}
	if stateVec, err = registerCollector(reg, stateVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		runDurationSeconds:   durationVec,
		runTotal:             runVec,
		signalCoalescedTotal: coalescedVec,
		signalDroppedTotal:   droppedVec,
		runnerState:          stateVec,
	}, nil
}

// RecordRunDuration records one run's duration.
func (m *MetricsExporter) RecordRunDuration(runnerName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runDurationSeconds.WithLabelValues(normalizeLabel(runnerName, "unknown")).Observe(duration.Seconds())
}

// RecordRunOutcome records how one run ended.
func (m *MetricsExporter) RecordRunOutcome(runnerName string, outcome core.RunOutcome) {
	if m == nil {
		return
	}
	m.runTotal.WithLabelValues(normalizeLabel(runnerName, "unknown"), outcome.String()).Inc()
}

// RecordSignalCoalesced records a coalesced tick.
func (m *MetricsExporter) RecordSignalCoalesced(runnerName string) {
	if m == nil {
		return
	}
	m.signalCoalescedTotal.WithLabelValues(normalizeLabel(runnerName, "unknown")).Inc()
}

// RecordSignalDropped records a discarded tick or pending run.
func (m *MetricsExporter) RecordSignalDropped(runnerName string, reason string) {
	if m == nil {
		return
	}
	m.signalDroppedTotal.WithLabelValues(normalizeLabel(runnerName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

// RecordState records the current run state.
func (m *MetricsExporter) RecordState(runnerName string, state core.RunState) {
	if m == nil {
		return
	}
	m.runnerState.WithLabelValues(normalizeLabel(runnerName, "unknown")).Set(float64(state))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}

package core

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task panics during a run.
// A panicking run is treated like a failed one for scheduling purposes:
// the runner transitions out of Running and a pending follow-up (if any)
// still gets its chance.
//
// Implementations are invoked from the runner's event loop, never
// concurrently with themselves for the same runner.
type PanicHandler interface {
	// HandlePanic is called when a run panics.
	//
	// Parameters:
	// - ctx: The context the panicked run received
	// - runnerName: The name of the periodic runner
	// - panicInfo: The panic value recovered from the run
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, runnerName string, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler provides a basic panic handler that logs to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, runnerName string, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Runner %s] Panic: %v\nStack trace:\n%s",
		runnerName, panicInfo, stackTrace)
}

// =============================================================================
// ErrorHandler: Interface for observing failed runs
// =============================================================================

// ErrorHandler is called when a run returns a non-nil error. The runner
// itself neither retries nor logs nor rethrows a failed run; reporting
// is entirely this handler's business.
//
// Invoked from the runner's event loop, before any pending follow-up
// run starts.
type ErrorHandler interface {
	// HandleRunError is called once per failed run.
	HandleRunError(runnerName string, err error)
}

// NopErrorHandler swallows run errors. This is the default: a failed run
// is indistinguishable from a successful one unless the owner opts in.
type NopErrorHandler struct{}

// HandleRunError is a no-op.
func (h *NopErrorHandler) HandleRunError(runnerName string, err error) {
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// RunOutcome classifies how a run ended.
type RunOutcome int

const (
	RunOutcomeOK RunOutcome = iota
	RunOutcomeError
	RunOutcomePanic
)

func (o RunOutcome) String() string {
	switch o {
	case RunOutcomeOK:
		return "ok"
	case RunOutcomeError:
		return "error"
	case RunOutcomePanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Signal drop reasons reported to Metrics.RecordSignalDropped.
const (
	DropReasonPaused         = "paused"
	DropReasonStopped        = "stopped"
	DropReasonPendingDropped = "pending_dropped"
)

// Metrics defines the interface for collecting runner metrics.
// Implementations can send metrics to monitoring systems (Prometheus,
// StatsD, etc.).
//
// Methods should be non-blocking and fast; they are called from the
// runner's event loop.
type Metrics interface {
	// RecordRunDuration records how long one run took.
	RecordRunDuration(runnerName string, duration time.Duration)

	// RecordRunOutcome records how a run ended (ok, error, panic).
	RecordRunOutcome(runnerName string, outcome RunOutcome)

	// RecordSignalCoalesced records a tick absorbed into an already
	// pending follow-up run.
	RecordSignalCoalesced(runnerName string)

	// RecordSignalDropped records a tick or pending follow-up that was
	// discarded, with the reason (paused, stopped, pending_dropped).
	RecordSignalDropped(runnerName string, reason string)

	// RecordState records the runner's state after a transition.
	RecordState(runnerName string, state RunState)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordRunDuration is a no-op.
func (m *NilMetrics) RecordRunDuration(runnerName string, duration time.Duration) {
}

// RecordRunOutcome is a no-op.
func (m *NilMetrics) RecordRunOutcome(runnerName string, outcome RunOutcome) {
}

// RecordSignalCoalesced is a no-op.
func (m *NilMetrics) RecordSignalCoalesced(runnerName string) {
}

// RecordSignalDropped is a no-op.
func (m *NilMetrics) RecordSignalDropped(runnerName string, reason string) {
}

// RecordState is a no-op.
func (m *NilMetrics) RecordState(runnerName string, state RunState) {
}

// =============================================================================
// Config: Configuration for PeriodicRunner
// =============================================================================

// Config holds configuration options for PeriodicRunner.
// All fields are optional; zero values fall back to defaults.
type Config struct {
	// Name labels the runner in logs and metrics. Defaults to "periodic".
	Name string

	// Paused is the dynamic pause flag. Nil means never paused.
	Paused *PauseFlag

	// Logger receives lifecycle events. Defaults to NoOpLogger.
	Logger Logger

	// Metrics receives run and signal metrics. Defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler is called when a run panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// ErrorHandler is called when a run fails. Defaults to NopErrorHandler.
	ErrorHandler ErrorHandler
}

// DefaultConfig returns a config with default handlers.
func DefaultConfig() *Config {
	return &Config{
		Name:         "periodic",
		Logger:       NewNoOpLogger(),
		Metrics:      &NilMetrics{},
		PanicHandler: &DefaultPanicHandler{},
		ErrorHandler: &NopErrorHandler{},
	}
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.Name == "" {
		out.Name = "periodic"
	}
	if out.Logger == nil {
		out.Logger = NewNoOpLogger()
	}
	if out.Metrics == nil {
		out.Metrics = &NilMetrics{}
	}
	if out.PanicHandler == nil {
		out.PanicHandler = &DefaultPanicHandler{}
	}
	if out.ErrorHandler == nil {
		out.ErrorHandler = &NopErrorHandler{}
	}
	return &out
}

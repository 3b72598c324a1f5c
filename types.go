package periodicrunner

import (
	"time"

	"github.com/hsinwei/go-periodic-runner/core"
)

// Re-export commonly used types from core package for convenience.
// This allows users to import only the periodicrunner package for most use cases.

// Task is the asynchronous unit of work (Closure)
type Task = core.Task

// PauseFlag is the dynamic pause switch read at each scheduling decision
type PauseFlag = core.PauseFlag

// PeriodicRunner drives one task on a fixed period without overlap
type PeriodicRunner = core.PeriodicRunner

// RunState describes what the guarded task is doing (idle, running, running with a pending follow-up)
type RunState = core.RunState

// RunnerStats is a snapshot of a runner's state and counters
type RunnerStats = core.RunnerStats

// Logger is the structured logging interface used by the runner
type Logger = core.Logger

// Field is a key-value pair for structured logging
type Field = core.Field

// Metrics receives run and signal metrics
type Metrics = core.Metrics

// PanicHandler is called when a run panics
type PanicHandler = core.PanicHandler

// ErrorHandler is called when a run returns an error
type ErrorHandler = core.ErrorHandler

// Config holds runner configuration; the Option helpers populate it
type Config = core.Config

// Run state constants
const (
	StateIdle           RunState = core.StateIdle
	StateRunning        RunState = core.StateRunning
	StateRunningPending RunState = core.StateRunningPending
)

// Convenience constructors re-exported from core
var (
	NewPauseFlag     = core.NewPauseFlag
	NewDefaultLogger = core.NewDefaultLogger
	NewNoOpLogger    = core.NewNoOpLogger
	F                = core.F
)

// NewPeriodicRunner creates an unstarted runner. Most callers want Start
// or RunPeriodically instead; this is re-exported for callers that build
// a Config directly.
func NewPeriodicRunner(task Task, period time.Duration, config *Config) (*PeriodicRunner, error) {
	return core.NewPeriodicRunner(task, period, config)
}

// GetCurrentRunner retrieves the PeriodicRunner that invoked the task from context
var GetCurrentRunner = core.GetCurrentRunner

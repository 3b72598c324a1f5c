package core

import (
	"context"
	"sync/atomic"
)

// Task is the asynchronous unit of work (Closure).
// The returned error is reported to the optional ErrorHandler only;
// for scheduling purposes a failed run is treated exactly like a
// successful one.
type Task func(ctx context.Context) error

// =============================================================================
// PauseFlag: Owner-controlled pause switch
// =============================================================================

// PauseFlag is a boolean the owner may flip at any time between periods
// without restarting the runner.
//
// The runner reads the current value at each decision point (tick arrival
// and run completion); it never latches a snapshot taken earlier. Flipping
// the flag while a run is in flight does not abort that run, it only
// affects whether follow-up runs start.
//
// A nil *PauseFlag reads as "not paused", so callers that never pause can
// skip creating one.
type PauseFlag struct {
	paused atomic.Bool
}

// NewPauseFlag creates a PauseFlag with the given initial value.
func NewPauseFlag(paused bool) *PauseFlag {
	f := &PauseFlag{}
	f.paused.Store(paused)
	return f
}

// Pause suppresses future run starts until Resume is called.
func (f *PauseFlag) Pause() {
	f.paused.Store(true)
}

// Resume re-enables run starts.
func (f *PauseFlag) Resume() {
	f.paused.Store(false)
}

// Set stores the given value.
func (f *PauseFlag) Set(paused bool) {
	f.paused.Store(paused)
}

// IsPaused returns the current value. Safe on a nil receiver.
func (f *PauseFlag) IsPaused() bool {
	if f == nil {
		return false
	}
	return f.paused.Load()
}

// =============================================================================
// Context Helper
// =============================================================================

type runnerKeyType struct{}

var runnerKey runnerKeyType

// GetCurrentRunner retrieves the PeriodicRunner that invoked the task
// from the task's context, or nil when the task was not started by one.
func GetCurrentRunner(ctx context.Context) *PeriodicRunner {
	if v := ctx.Value(runnerKey); v != nil {
		return v.(*PeriodicRunner)
	}
	return nil
}

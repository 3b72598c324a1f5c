package core

import "time"

// RunnerStats represents runtime observability state for a periodic runner.
type RunnerStats struct {
	Name  string
	State RunState

	Paused  bool
	Stopped bool

	// Invocations counts runs that actually started, including pending
	// follow-ups that launched at completion time.
	Invocations uint64

	// Coalesced counts ticks absorbed into an already pending follow-up.
	Coalesced uint64

	// DroppedPaused counts idle-state ticks dropped because of the pause
	// flag; DroppedPending counts pending follow-ups discarded at
	// completion time.
	DroppedPaused  uint64
	DroppedPending uint64

	// Failures and Panics classify completed runs. A panicking run is
	// not also counted as a failure.
	Failures uint64
	Panics   uint64

	LastRunAt       time.Time
	LastRunDuration time.Duration
}

package core

// RunState describes what the guarded task is doing right now.
//
// The three flip-flop facts a naive implementation tracks independently
// (a run is in flight, a tick arrived meanwhile, more ticks arrived) are
// folded into one enumeration so a transition can never expose a torn
// intermediate state.
type RunState int32

const (
	// StateIdle: no run in flight, no request recorded.
	StateIdle RunState = iota

	// StateRunning: exactly one run in flight, no follow-up recorded.
	StateRunning

	// StateRunningPending: one run in flight and exactly one follow-up
	// request recorded. Further signals coalesce into this state; there
	// is never a queue of pending runs.
	StateRunningPending
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateRunningPending:
		return "running_pending"
	default:
		return "unknown"
	}
}

// OverlapGuard decides, for each tick signal and each run completion,
// whether the task may start. It guarantees that runs never overlap and
// that at most one follow-up run is ever scheduled, no matter how many
// ticks arrive while a run is in flight.
//
// The guard is a plain state machine with no synchronization of its own.
// It must only be driven from a single goroutine; PeriodicRunner drives
// it from its event loop.
type OverlapGuard struct {
	state RunState

	// Counters for observability. Mutated on the driving goroutine only.
	invocations    uint64
	coalesced      uint64
	droppedPaused  uint64
	droppedPending uint64
}

// Signal processes one tick. paused is the pause flag value read at this
// instant. It returns true when the caller should invoke the task now.
//
// While idle, an unpaused signal starts a run and a paused one is
// dropped. While running, an unpaused signal records a single pending
// follow-up; a paused signal leaves the in-flight run alone and records
// nothing. Once a follow-up is pending, every further signal coalesces
// into it.
func (g *OverlapGuard) Signal(paused bool) bool {
	switch g.state {
	case StateIdle:
		if paused {
			g.droppedPaused++
			return false
		}
		g.state = StateRunning
		g.invocations++
		return true

	case StateRunning:
		if paused {
			return false
		}
		g.state = StateRunningPending
		return false

	case StateRunningPending:
		g.coalesced++
		return false
	}

	return false
}

// OnComplete processes the completion of the in-flight run. Success and
// failure are indistinguishable here. paused and stopped must be the
// flag values read at completion time, not the ones seen when the
// pending signal arrived; this re-read is what makes a pause or a
// teardown issued mid-run take effect on the very next decision.
//
// It returns true when a pending follow-up run should start now.
func (g *OverlapGuard) OnComplete(paused, stopped bool) bool {
	switch g.state {
	case StateRunning:
		g.state = StateIdle
		return false

	case StateRunningPending:
		g.state = StateIdle
		if paused || stopped {
			g.droppedPending++
			return false
		}
		g.state = StateRunning
		g.invocations++
		return true
	}

	// Completion while idle: a lifecycle race, defined as a no-op.
	return false
}

// State returns the current state.
func (g *OverlapGuard) State() RunState {
	return g.state
}

// Invocations returns how many runs the guard has started.
func (g *OverlapGuard) Invocations() uint64 {
	return g.invocations
}

// Coalesced returns how many signals were absorbed into an already
// pending follow-up.
func (g *OverlapGuard) Coalesced() uint64 {
	return g.coalesced
}

// DroppedPaused returns how many idle-state signals were dropped because
// the runner was paused.
func (g *OverlapGuard) DroppedPaused() uint64 {
	return g.droppedPaused
}

// DroppedPending returns how many pending follow-ups were discarded at
// completion time because the runner was paused or torn down.
func (g *OverlapGuard) DroppedPending() uint64 {
	return g.droppedPending
}

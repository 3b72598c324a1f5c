package core

import "testing"

// TestOverlapGuard_IdleSignalStartsRun verifies the Idle -> Running transition
// Given: A guard in the idle state
// When: An unpaused signal arrives
// Then: The run launches and the state becomes Running
func TestOverlapGuard_IdleSignalStartsRun(t *testing.T) {
	g := &OverlapGuard{}

	if !g.Signal(false) {
		t.Fatal("Signal(false) = false, want true (idle guard should launch)")
	}
	if g.State() != StateRunning {
		t.Errorf("State() = %v, want %v", g.State(), StateRunning)
	}
	if g.Invocations() != 1 {
		t.Errorf("Invocations() = %d, want 1", g.Invocations())
	}
}

// TestOverlapGuard_PausedSignalDroppedWhileIdle verifies pause suppression
// Given: A guard in the idle state
// When: A paused signal arrives
// Then: Nothing launches and the guard stays idle
func TestOverlapGuard_PausedSignalDroppedWhileIdle(t *testing.T) {
	g := &OverlapGuard{}

	if g.Signal(true) {
		t.Fatal("Signal(true) = true, want false (paused signal must be dropped)")
	}
	if g.State() != StateIdle {
		t.Errorf("State() = %v, want %v", g.State(), StateIdle)
	}
	if g.DroppedPaused() != 1 {
		t.Errorf("DroppedPaused() = %d, want 1", g.DroppedPaused())
	}
}

// TestOverlapGuard_SignalWhileRunningDefersOneRun verifies pending recording
// Given: A guard with a run in flight
// When: Unpaused signals arrive
// Then: The first records a pending follow-up, the rest coalesce into it
func TestOverlapGuard_SignalWhileRunningDefersOneRun(t *testing.T) {
	g := &OverlapGuard{}
	g.Signal(false)

	if g.Signal(false) {
		t.Fatal("Signal while running launched a second run")
	}
	if g.State() != StateRunningPending {
		t.Errorf("State() = %v, want %v", g.State(), StateRunningPending)
	}

	// Three more ticks during the same run: all coalesce, never a queue.
	for i := 0; i < 3; i++ {
		if g.Signal(false) {
			t.Fatal("Signal while pending launched a run")
		}
	}
	if g.State() != StateRunningPending {
		t.Errorf("State() = %v, want %v", g.State(), StateRunningPending)
	}
	if g.Coalesced() != 3 {
		t.Errorf("Coalesced() = %d, want 3", g.Coalesced())
	}
}

// TestOverlapGuard_PausedSignalWhileRunningRecordsNothing verifies the
// running-and-paused cell of the transition table
// Given: A guard with a run in flight
// When: A paused signal arrives
// Then: The run continues and no pending follow-up is recorded
func TestOverlapGuard_PausedSignalWhileRunningRecordsNothing(t *testing.T) {
	g := &OverlapGuard{}
	g.Signal(false)

	if g.Signal(true) {
		t.Fatal("paused signal while running launched a run")
	}
	if g.State() != StateRunning {
		t.Errorf("State() = %v, want %v (no pending request recorded)", g.State(), StateRunning)
	}

	// Completion with nothing pending returns to idle without a launch.
	if g.OnComplete(false, false) {
		t.Fatal("OnComplete launched with no pending request")
	}
	if g.State() != StateIdle {
		t.Errorf("State() = %v, want %v", g.State(), StateIdle)
	}
}

// TestOverlapGuard_PendingRunLaunchesOnCompletion verifies the coalesced
// follow-up run
// Given: A guard with a run in flight and a pending follow-up
// When: The run completes while neither paused nor stopped
// Then: Exactly one new run launches
func TestOverlapGuard_PendingRunLaunchesOnCompletion(t *testing.T) {
	g := &OverlapGuard{}
	g.Signal(false)
	g.Signal(false)

	if !g.OnComplete(false, false) {
		t.Fatal("OnComplete = false, want true (pending run should launch)")
	}
	if g.State() != StateRunning {
		t.Errorf("State() = %v, want %v", g.State(), StateRunning)
	}
	if g.Invocations() != 2 {
		t.Errorf("Invocations() = %d, want 2", g.Invocations())
	}

	// The follow-up completing with nothing further pending goes idle.
	if g.OnComplete(false, false) {
		t.Fatal("second OnComplete launched a run")
	}
	if g.State() != StateIdle {
		t.Errorf("State() = %v, want %v", g.State(), StateIdle)
	}
}

// TestOverlapGuard_CompletionRecheckDropsPendingWhenPaused verifies the
// decision-time re-read of the pause flag
// Given: A pending follow-up recorded while the runner was unpaused
// When: The run completes and the pause flag is now set
// Then: The pending run is dropped, not started with the stale flag value
func TestOverlapGuard_CompletionRecheckDropsPendingWhenPaused(t *testing.T) {
	g := &OverlapGuard{}
	g.Signal(false)
	g.Signal(false) // pending recorded while unpaused

	if g.OnComplete(true, false) {
		t.Fatal("OnComplete launched despite pause at completion time")
	}
	if g.State() != StateIdle {
		t.Errorf("State() = %v, want %v", g.State(), StateIdle)
	}
	if g.DroppedPending() != 1 {
		t.Errorf("DroppedPending() = %d, want 1", g.DroppedPending())
	}
}

// TestOverlapGuard_CompletionRecheckDropsPendingWhenStopped verifies
// teardown wins over a pending request
// Given: A pending follow-up
// When: The run completes after teardown began
// Then: The pending run is dropped
func TestOverlapGuard_CompletionRecheckDropsPendingWhenStopped(t *testing.T) {
	g := &OverlapGuard{}
	g.Signal(false)
	g.Signal(false)

	if g.OnComplete(false, true) {
		t.Fatal("OnComplete launched despite teardown")
	}
	if g.State() != StateIdle {
		t.Errorf("State() = %v, want %v", g.State(), StateIdle)
	}
	if g.DroppedPending() != 1 {
		t.Errorf("DroppedPending() = %d, want 1", g.DroppedPending())
	}
}

// TestOverlapGuard_UnpauseBeforeCompletionKeepsPending verifies the other
// direction of the re-read: a pause toggled off again before completion
// does not cost the pending run
// Given: A pending follow-up and a pause flag toggled on then off mid-run
// When: The run completes with the flag off
// Then: The pending run still launches
func TestOverlapGuard_UnpauseBeforeCompletionKeepsPending(t *testing.T) {
	g := &OverlapGuard{}
	g.Signal(false)
	g.Signal(false)

	// The toggle happened outside the guard; only the completion-time
	// value reaches it.
	if !g.OnComplete(false, false) {
		t.Fatal("OnComplete = false, want true")
	}
	if g.Invocations() != 2 {
		t.Errorf("Invocations() = %d, want 2", g.Invocations())
	}
}

// TestOverlapGuard_CompletionWhileIdleIsNoOp verifies lifecycle races are
// defined as no-ops
func TestOverlapGuard_CompletionWhileIdleIsNoOp(t *testing.T) {
	g := &OverlapGuard{}

	if g.OnComplete(false, false) {
		t.Fatal("OnComplete on idle guard launched a run")
	}
	if g.State() != StateIdle {
		t.Errorf("State() = %v, want %v", g.State(), StateIdle)
	}
	if g.Invocations() != 0 {
		t.Errorf("Invocations() = %d, want 0", g.Invocations())
	}
}

// TestRunState_String verifies state names used in logs and metrics
func TestRunState_String(t *testing.T) {
	if s := StateIdle.String(); s != "idle" {
		t.Errorf("StateIdle.String() = %q, want %q", s, "idle")
	}
	if s := StateRunning.String(); s != "running" {
		t.Errorf("StateRunning.String() = %q, want %q", s, "running")
	}
	if s := StateRunningPending.String(); s != "running_pending" {
		t.Errorf("StateRunningPending.String() = %q, want %q", s, "running_pending")
	}
	if s := RunState(42).String(); s != "unknown" {
		t.Errorf("RunState(42).String() = %q, want %q", s, "unknown")
	}
}

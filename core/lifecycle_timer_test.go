package core

import (
	"sync/atomic"
	"testing"
	"time"
)

// TestLifecycleTimer_NoLeadingTick verifies ticks start after one full period
// Given: A timer with a 100ms period
// When: 50ms elapse
// Then: No tick has fired yet
func TestLifecycleTimer_NoLeadingTick(t *testing.T) {
	timer := &LifecycleTimer{}
	defer timer.Stop()

	var ticks atomic.Int32
	if err := timer.Start(100*time.Millisecond, func() {
		ticks.Add(1)
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if n := ticks.Load(); n != 0 {
		t.Errorf("ticks = %d, want 0 (no immediate leading call)", n)
	}
}

// TestLifecycleTimer_PeriodicEmission verifies ticks are spaced by the period
// Given: A timer with a 50ms period
// When: 275ms elapse
// Then: Roughly 5 ticks have fired
func TestLifecycleTimer_PeriodicEmission(t *testing.T) {
	timer := &LifecycleTimer{}
	defer timer.Stop()

	var ticks atomic.Int32
	if err := timer.Start(50*time.Millisecond, func() {
		ticks.Add(1)
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(275 * time.Millisecond)
	timer.Stop()

	n := ticks.Load()
	if n < 3 || n > 6 {
		t.Errorf("ticks = %d, want 3-6 for 275ms at 50ms period", n)
	}
}

// TestLifecycleTimer_RejectsBadArguments verifies fail-fast preconditions
func TestLifecycleTimer_RejectsBadArguments(t *testing.T) {
	timer := &LifecycleTimer{}

	if err := timer.Start(0, func() {}); err == nil {
		t.Error("Start with zero period succeeded, want error")
	}
	if err := timer.Start(-time.Second, func() {}); err == nil {
		t.Error("Start with negative period succeeded, want error")
	}
	if err := timer.Start(time.Second, nil); err == nil {
		t.Error("Start with nil onTick succeeded, want error")
	}
	if timer.IsLive() {
		t.Error("IsLive() = true after rejected Start calls, want false")
	}
}

// TestLifecycleTimer_NoTickAfterStop verifies the teardown guarantee
// Given: A running timer
// When: Stop returns
// Then: onTick never fires again, even for a tick dispatched at that moment
func TestLifecycleTimer_NoTickAfterStop(t *testing.T) {
	timer := &LifecycleTimer{}

	var ticks atomic.Int32
	if err := timer.Start(20*time.Millisecond, func() {
		ticks.Add(1)
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(110 * time.Millisecond)
	timer.Stop()
	after := ticks.Load()

	time.Sleep(100 * time.Millisecond)

	if final := ticks.Load(); final != after {
		t.Errorf("ticks grew from %d to %d after Stop returned", after, final)
	}
}

// TestLifecycleTimer_IdempotentStop verifies Stop is safe to repeat and
// safe on a timer that never started
func TestLifecycleTimer_IdempotentStop(t *testing.T) {
	timer := &LifecycleTimer{}

	// Never started.
	timer.Stop()
	timer.Stop()

	if err := timer.Start(50*time.Millisecond, func() {}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	timer.Stop()
	timer.Stop()

	if timer.IsLive() {
		t.Error("IsLive() = true after Stop, want false")
	}
}

// TestLifecycleTimer_RestartSamePeriodIsNoOp verifies at most one clock
// source exists per timer
// Given: A live timer
// When: Start is called again with the same period
// Then: No second clock starts; the tick rate does not double
func TestLifecycleTimer_RestartSamePeriodIsNoOp(t *testing.T) {
	timer := &LifecycleTimer{}
	defer timer.Stop()

	var ticks atomic.Int32
	onTick := func() { ticks.Add(1) }

	if err := timer.Start(50*time.Millisecond, onTick); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if err := timer.Start(50*time.Millisecond, onTick); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	time.Sleep(275 * time.Millisecond)
	timer.Stop()

	n := ticks.Load()
	if n > 6 {
		t.Errorf("ticks = %d, want <=6 (a duplicate clock would roughly double this)", n)
	}
}

// TestLifecycleTimer_RestartWithNewPeriodReplacesClock verifies a period
// change retires the prior clock before starting the new one
// Given: A timer live at 1s
// When: Start is called with 30ms
// Then: Ticks arrive at the new rate and Period reports the new value
func TestLifecycleTimer_RestartWithNewPeriodReplacesClock(t *testing.T) {
	timer := &LifecycleTimer{}
	defer timer.Stop()

	var ticks atomic.Int32
	onTick := func() { ticks.Add(1) }

	if err := timer.Start(time.Second, onTick); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if err := timer.Start(30*time.Millisecond, onTick); err != nil {
		t.Fatalf("re-Start failed: %v", err)
	}

	if got := timer.Period(); got != 30*time.Millisecond {
		t.Errorf("Period() = %v, want 30ms", got)
	}

	time.Sleep(200 * time.Millisecond)

	if n := ticks.Load(); n < 3 {
		t.Errorf("ticks = %d, want >=3 at the replaced 30ms period", n)
	}
}

// TestLifecycleTimer_RestartAfterStop verifies the handle can be reused
func TestLifecycleTimer_RestartAfterStop(t *testing.T) {
	timer := &LifecycleTimer{}
	defer timer.Stop()

	var ticks atomic.Int32
	if err := timer.Start(30*time.Millisecond, func() { ticks.Add(1) }); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	timer.Stop()

	if err := timer.Start(30*time.Millisecond, func() { ticks.Add(1) }); err != nil {
		t.Fatalf("Start after Stop failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if n := ticks.Load(); n < 1 {
		t.Errorf("ticks = %d, want >=1 after restart", n)
	}
}

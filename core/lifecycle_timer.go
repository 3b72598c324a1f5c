package core

import (
	"fmt"
	"sync"
	"time"
)

// LifecycleTimer owns a single periodic clock source and reports each
// firing through an onTick callback. The first tick fires after one full
// period; there is no leading call.
//
// At most one underlying clock exists per timer at any time:
//   - Start while live with the same period is a no-op.
//   - Start while live with a different period stops the prior clock and
//     starts a replacement.
//
// Stop is idempotent and safe to call before Start. Once Stop returns,
// onTick never fires again: a tick the clock already dispatched but has
// not yet delivered is dropped, not queued.
type LifecycleTimer struct {
	mu     sync.Mutex
	period time.Duration
	clock  *timerClock
}

// timerClock is one generation of the underlying clock. Replacing the
// period or stopping the timer retires the whole generation, so a stale
// goroutine from a prior Start can never fire into the current one.
type timerClock struct {
	halt    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// Start begins emitting onTick calls spaced by period.
func (t *LifecycleTimer) Start(period time.Duration, onTick func()) error {
	if period <= 0 {
		return fmt.Errorf("lifecycle timer: period must be positive, got %v", period)
	}
	if onTick == nil {
		return fmt.Errorf("lifecycle timer: onTick must not be nil")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.clock != nil {
		if period == t.period {
			// Already live with this period, keep the existing clock.
			return nil
		}
		t.clock.shutdown()
	}

	c := &timerClock{
		halt:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	t.clock = c
	t.period = period

	go c.run(period, onTick)

	return nil
}

// Stop halts tick emission. Idempotent; a second Stop, or a Stop on a
// timer that never started, does nothing.
func (t *LifecycleTimer) Stop() {
	t.mu.Lock()
	c := t.clock
	t.clock = nil
	t.period = 0
	t.mu.Unlock()

	if c != nil {
		c.shutdown()
	}
}

// IsLive reports whether a clock source currently exists.
func (t *LifecycleTimer) IsLive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clock != nil
}

// Period returns the period of the live clock, or zero when stopped.
func (t *LifecycleTimer) Period() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period
}

func (c *timerClock) run(period time.Duration, onTick func()) {
	defer close(c.stopped) // Signal that shutdown() can return

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-c.halt:
			return
		case <-ticker.C:
			// A halt and a tick may be ready at the same instant and
			// select picks between them at random. Re-check so the
			// already-dispatched tick is dropped instead of delivered.
			select {
			case <-c.halt:
				return
			default:
			}
			onTick()
		}
	}
}

// shutdown retires the clock and waits for its goroutine to exit, which
// guarantees onTick is not mid-call (and never called again) on return.
func (c *timerClock) shutdown() {
	c.once.Do(func() {
		close(c.halt)
	})
	<-c.stopped
}

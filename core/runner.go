package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// PeriodicRunner repeatedly invokes one Task on a fixed period while
// guaranteeing that runs never overlap and that at most one follow-up
// run is pending at any time.
//
// It composes a LifecycleTimer and an OverlapGuard behind a single event
// loop goroutine. Ticks and run completions are funneled into that loop,
// so every scheduling decision runs to completion before the next one —
// the guard's state needs no locking by construction. The task body
// itself runs on its own goroutine; only its completion re-enters the
// loop.
//
// Key behaviors:
//   - Ticks arriving while a run is in flight coalesce into at most one
//     pending follow-up, never a queue.
//   - The pause flag is read when a decision is made (tick arrival, run
//     completion), never from a snapshot captured earlier.
//   - Teardown (Stop or owning-context cancellation) lets an in-flight
//     run finish naturally but guarantees zero invocations afterwards.
//   - A failed or panicking run is treated like a successful one for
//     scheduling; reporting goes through ErrorHandler / PanicHandler.
type PeriodicRunner struct {
	name   string
	task   Task
	period time.Duration
	paused *PauseFlag

	logger       Logger
	metrics      Metrics
	panicHandler PanicHandler
	errorHandler ErrorHandler

	timer *LifecycleTimer
	guard OverlapGuard

	// Tick delivery is a 1-buffered non-blocking send: a tick that finds
	// one already waiting is redundant, the guard coalesces anyway.
	ticks       chan struct{}
	completions chan runResult

	// Lifecycle control
	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	stopped  atomic.Bool // liveness flag, monotonic false -> true
	done     chan struct{}
	doneOnce sync.Once

	// Stats not owned by the guard. statsMu also covers guard counters
	// so Stats() sees a consistent snapshot while the loop mutates them.
	statsMu         sync.Mutex
	failures        uint64
	panics          uint64
	lastRunAt       time.Time
	lastRunDuration time.Duration
}

// runResult carries one finished run back into the event loop.
type runResult struct {
	ctx        context.Context
	err        error
	panicked   bool
	panicInfo  any
	stack      []byte
	startedAt  time.Time
	finishedAt time.Time
}

// NewPeriodicRunner creates a runner for the given task and period.
// It does not start the clock; call Start.
//
// A nil task or non-positive period is a rejected precondition, not
// undefined behavior.
func NewPeriodicRunner(task Task, period time.Duration, config *Config) (*PeriodicRunner, error) {
	if task == nil {
		return nil, fmt.Errorf("periodic runner: task must not be nil")
	}
	if period <= 0 {
		return nil, fmt.Errorf("periodic runner: period must be positive, got %v", period)
	}

	if config == nil {
		config = DefaultConfig()
	} else {
		config = config.withDefaults()
	}

	paused := config.Paused
	if paused == nil {
		paused = NewPauseFlag(false)
	}

	return &PeriodicRunner{
		name:         config.Name,
		task:         task,
		period:       period,
		paused:       paused,
		logger:       config.Logger,
		metrics:      config.Metrics,
		panicHandler: config.PanicHandler,
		errorHandler: config.ErrorHandler,
		timer:        &LifecycleTimer{},
		ticks:        make(chan struct{}, 1),
		completions:  make(chan runResult, 1),
		done:         make(chan struct{}),
	}, nil
}

// Start binds the runner to ctx and begins ticking. The first run is
// requested after one full period; there is no immediate leading run.
// When ctx is cancelled the runner tears itself down exactly as if Stop
// had been called.
//
// Start on an already running runner is a no-op. Start after Stop
// returns an error; a runner is not restartable.
func (r *PeriodicRunner) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped.Load() {
		return fmt.Errorf("periodic runner %s: already stopped", r.name)
	}
	if r.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	if err := r.timer.Start(r.period, r.requestRun); err != nil {
		cancel()
		r.running = false
		return err
	}

	go r.loop(loopCtx)

	r.logger.Info("periodic runner started",
		F("runner", r.name), F("period", r.period))

	return nil
}

// Stop tears the runner down: the clock stops, no further runs start,
// and a pending follow-up is dropped. An in-flight run is not cancelled;
// it finishes naturally. Idempotent, and safe on a never-started runner.
//
// Stop does not wait for the in-flight run; use Done or WaitStopped.
func (r *PeriodicRunner) Stop() {
	r.stopped.Store(true)

	r.mu.Lock()
	cancel := r.cancel
	wasRunning := r.running
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !wasRunning {
		// No loop exists to close done on our behalf.
		r.timer.Stop()
		r.markDone()
	}
}

// IsStopped returns true once teardown has begun.
func (r *PeriodicRunner) IsStopped() bool {
	return r.stopped.Load()
}

// Name returns the runner's name as used in logs and metrics.
func (r *PeriodicRunner) Name() string {
	return r.name
}

// Period returns the configured period.
func (r *PeriodicRunner) Period() time.Duration {
	return r.period
}

// PauseFlag returns the runner's pause flag. Flipping it takes effect at
// the next scheduling decision without restarting the timer.
func (r *PeriodicRunner) PauseFlag() *PauseFlag {
	return r.paused
}

// Pause is shorthand for PauseFlag().Pause().
func (r *PeriodicRunner) Pause() {
	r.paused.Pause()
}

// Resume is shorthand for PauseFlag().Resume().
func (r *PeriodicRunner) Resume() {
	r.paused.Resume()
}

// Done returns a channel closed once the runner has fully wound down:
// the loop has exited and no run is in flight.
func (r *PeriodicRunner) Done() <-chan struct{} {
	return r.done
}

// WaitStopped blocks until the runner has fully wound down or ctx ends.
func (r *PeriodicRunner) WaitStopped(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a consistent snapshot of the runner's state and counters.
func (r *PeriodicRunner) Stats() RunnerStats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	return RunnerStats{
		Name:            r.name,
		State:           r.guard.State(),
		Paused:          r.paused.IsPaused(),
		Stopped:         r.stopped.Load(),
		Invocations:     r.guard.Invocations(),
		Coalesced:       r.guard.Coalesced(),
		DroppedPaused:   r.guard.DroppedPaused(),
		DroppedPending:  r.guard.DroppedPending(),
		Failures:        r.failures,
		Panics:          r.panics,
		LastRunAt:       r.lastRunAt,
		LastRunDuration: r.lastRunDuration,
	}
}

// requestRun is the LifecycleTimer onTick callback. The send must never
// block: the timer goroutine may be mid-delivery while the loop is busy,
// and Stop waits for the timer goroutine to exit.
func (r *PeriodicRunner) requestRun() {
	select {
	case r.ticks <- struct{}{}:
	default:
	}
}

// loop is the single logical thread of control. Every core operation
// (tick handling, completion handling, teardown) runs to completion here
// before the next one is taken.
func (r *PeriodicRunner) loop(ctx context.Context) {
	defer r.markDone()

	for {
		select {
		case <-r.ticks:
			r.handleTick()

		case res := <-r.completions:
			r.handleCompletion(res)

		case <-ctx.Done():
			r.teardown()
			if r.guard.State() == StateIdle {
				return
			}
			// Let the in-flight run finish naturally. Its completion is
			// still processed so counters and handlers fire, but the
			// guard's stopped re-check prevents any further launch.
			for {
				res := <-r.completions
				r.handleCompletion(res)
				if r.guard.State() == StateIdle {
					return
				}
			}
		}
	}
}

func (r *PeriodicRunner) handleTick() {
	if r.stopped.Load() {
		// A tick already in the buffer when teardown raced in.
		r.metrics.RecordSignalDropped(r.name, DropReasonStopped)
		return
	}

	paused := r.paused.IsPaused()

	r.statsMu.Lock()
	prev := r.guard.State()
	launch := r.guard.Signal(paused)
	state := r.guard.State()
	r.statsMu.Unlock()

	r.metrics.RecordState(r.name, state)

	switch {
	case launch:
		r.logger.Debug("run started", F("runner", r.name))
		r.launch()
	case prev == StateRunningPending:
		r.metrics.RecordSignalCoalesced(r.name)
	case paused:
		r.metrics.RecordSignalDropped(r.name, DropReasonPaused)
	}
}

func (r *PeriodicRunner) handleCompletion(res runResult) {
	duration := res.finishedAt.Sub(res.startedAt)

	outcome := RunOutcomeOK
	switch {
	case res.panicked:
		outcome = RunOutcomePanic
	case res.err != nil:
		outcome = RunOutcomeError
	}

	r.statsMu.Lock()
	switch outcome {
	case RunOutcomePanic:
		r.panics++
	case RunOutcomeError:
		r.failures++
	}
	r.lastRunAt = res.startedAt
	r.lastRunDuration = duration
	r.statsMu.Unlock()

	r.metrics.RecordRunDuration(r.name, duration)
	r.metrics.RecordRunOutcome(r.name, outcome)

	if res.panicked {
		r.panicHandler.HandlePanic(res.ctx, r.name, res.panicInfo, res.stack)
	} else if res.err != nil {
		r.errorHandler.HandleRunError(r.name, res.err)
	}

	// Re-read pause and liveness now, at completion time. A pause or
	// teardown issued while the run was in flight must win over the
	// state of the world when the pending signal arrived.
	paused := r.paused.IsPaused()
	stopped := r.stopped.Load()

	r.statsMu.Lock()
	prev := r.guard.State()
	again := r.guard.OnComplete(paused, stopped)
	state := r.guard.State()
	r.statsMu.Unlock()

	r.metrics.RecordState(r.name, state)

	if again {
		r.logger.Debug("pending run started", F("runner", r.name))
		r.launch()
	} else if prev == StateRunningPending {
		r.metrics.RecordSignalDropped(r.name, DropReasonPendingDropped)
	}
}

// launch starts one run on its own goroutine. The run's context is not
// derived from the loop context: stopping the runner must not cancel an
// in-flight run.
func (r *PeriodicRunner) launch() {
	runCtx := context.WithValue(context.Background(), runnerKey, r)

	go func() {
		res := runResult{ctx: runCtx, startedAt: time.Now()}

		func() {
			defer func() {
				if rec := recover(); rec != nil {
					res.panicked = true
					res.panicInfo = rec
					res.stack = debug.Stack()
				}
			}()
			res.err = r.task(runCtx)
		}()

		res.finishedAt = time.Now()
		r.completions <- res
	}()
}

func (r *PeriodicRunner) teardown() {
	r.stopped.Store(true)
	r.timer.Stop()

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	r.logger.Info("periodic runner stopped", F("runner", r.name))
}

func (r *PeriodicRunner) markDone() {
	r.doneOnce.Do(func() {
		close(r.done)
	})
}

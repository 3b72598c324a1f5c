// Package periodicrunner provides a recurring-timer abstraction that
// repeatedly invokes an asynchronous task on a fixed period, guaranteeing
// that no two runs of that task ever overlap and that at most one run is
// pending at any time.
//
// Ticks that arrive while a run is still in flight are coalesced into a
// single pending follow-up run — never queued, never silently lost. A
// dynamic pause flag can suppress runs between periods without restarting
// the timer, and the runner tears itself down when its owning context is
// cancelled.
//
// # Quick Start
//
// Fire-and-forget, bound to a context:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel() // stops the timer; an in-flight run finishes naturally
//
//	periodicrunner.RunPeriodically(ctx, func(ctx context.Context) error {
//		return syncSomething(ctx)
//	}, 5*time.Second)
//
// Keep a handle for pausing and inspection:
//
//	runner, err := periodicrunner.Start(ctx, task, time.Second,
//		periodicrunner.WithName("cache-refresh"),
//	)
//	if err != nil {
//		// non-positive period or nil task
//	}
//	runner.Pause()  // in-flight run finishes; no new runs start
//	runner.Resume()
//
// # Key Concepts
//
// Coalescing: if the task is slower than the period, however many ticks
// elapse during one run, exactly one follow-up run starts when it
// completes. A task invoked at t=0 taking 2.5 periods with ticks at P,
// 2P and 3P yields two total runs, not four.
//
// Decision-time flags: the pause flag and the teardown state are read
// when a scheduling decision is made — at tick arrival and again at run
// completion — never from a snapshot captured earlier. Pausing mid-run
// drops the pending follow-up; unpausing before completion lets it start.
//
// Error handling: a run that returns an error (or panics) is treated
// exactly like a successful one for scheduling. The runner never retries
// or rethrows; opt into reporting with WithErrorHandler and
// WithPanicHandler.
//
// # Concurrency Model
//
// All scheduling decisions execute on one event-loop goroutine, so the
// run state machine needs no locks. Only the task body runs elsewhere.
// There is no cooperative cancellation: stopping prevents future runs, it
// does not abort a running one, and a task that never returns parks the
// runner after absorbing at most one pending run.
package periodicrunner

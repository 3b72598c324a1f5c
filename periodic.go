package periodicrunner

import (
	"context"
	"time"

	"github.com/hsinwei/go-periodic-runner/core"
)

// Option configures a runner created by Start or RunPeriodically.
type Option func(*core.Config)

// WithName labels the runner in logs and metrics.
func WithName(name string) Option {
	return func(c *core.Config) {
		c.Name = name
	}
}

// WithPauseFlag supplies a pause flag the caller already owns, so it can
// be flipped between periods (or shared across runners) without keeping
// the runner handle around.
func WithPauseFlag(flag *core.PauseFlag) Option {
	return func(c *core.Config) {
		c.Paused = flag
	}
}

// WithPaused starts the runner with its own pause flag preset to paused.
// Retrieve the flag with the runner's PauseFlag method to unpause.
func WithPaused() Option {
	return func(c *core.Config) {
		c.Paused = core.NewPauseFlag(true)
	}
}

// WithLogger routes lifecycle events to the given logger.
func WithLogger(logger core.Logger) Option {
	return func(c *core.Config) {
		c.Logger = logger
	}
}

// WithMetrics routes run and signal metrics to the given collector.
func WithMetrics(metrics core.Metrics) Option {
	return func(c *core.Config) {
		c.Metrics = metrics
	}
}

// WithPanicHandler replaces the default stdout panic handler.
func WithPanicHandler(handler core.PanicHandler) Option {
	return func(c *core.Config) {
		c.PanicHandler = handler
	}
}

// WithErrorHandler opts into per-run error reporting. Without it, a
// failed run is indistinguishable from a successful one.
func WithErrorHandler(handler core.ErrorHandler) Option {
	return func(c *core.Config) {
		c.ErrorHandler = handler
	}
}

// Start creates and starts a periodic runner bound to ctx and returns
// its handle. The first run is requested after one full period. When ctx
// is cancelled the runner stops; an in-flight run finishes naturally but
// nothing starts after that.
//
// The only errors are rejected preconditions: a nil task or a
// non-positive period.
func Start(ctx context.Context, task core.Task, period time.Duration, opts ...Option) (*core.PeriodicRunner, error) {
	cfg := core.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	runner, err := core.NewPeriodicRunner(task, period, cfg)
	if err != nil {
		return nil, err
	}

	if err := runner.Start(ctx); err != nil {
		return nil, err
	}

	return runner, nil
}

// RunPeriodically is the fire-and-forget entry point: it starts task on
// the given period, bound to ctx for teardown, and discards the handle.
// Use the WithPauseFlag option to retain pause control.
func RunPeriodically(ctx context.Context, task core.Task, period time.Duration, opts ...Option) error {
	_, err := Start(ctx, task, period, opts...)
	return err
}

package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	errs "followgraph/pkg/errors"
	"followgraph/pkg/logger"
)

// DefaultMinWait bounds how often the status probe is polled while the
// window is exhausted, even when the reported reset is already in the past.
const DefaultMinWait = time.Second

// Quota is one reading of the remaining budget in the current window.
type Quota struct {
	Remaining int
	ResetAt   time.Time
}

// Prober queries the server for the current quota. Probes are not metered.
type Prober interface {
	Probe(ctx context.Context) (Quota, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) (Quota, error)

func (f ProberFunc) Probe(ctx context.Context) (Quota, error) { return f(ctx) }

// State is a snapshot of the governor's bookkeeping.
type State struct {
	Remaining int
	ResetAt   time.Time
	Known     bool
}

// WaitEvent describes a sleep until the window resets.
type WaitEvent struct {
	Delay   time.Duration
	ResetAt time.Time
	Attempt int
}

// Stats accumulates governor activity for reporting.
type Stats struct {
	Consumed int
	Probes   int
	Waits    int
	Waited   time.Duration
}

// Governor keeps the single request budget for one process. Consume must be
// called before every metered request and Observe after every response that
// carries rate-limit metadata. Consume calls are serialized.
type Governor struct {
	prober  Prober
	clock   Clock
	minWait time.Duration
	onWait  func(WaitEvent)
	logger  logger.Logger

	gate  sync.Mutex // serializes Consume
	mu    sync.Mutex // guards state and stats
	state State
	stats Stats
}

// Option configures a Governor.
type Option func(*Governor)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(g *Governor) { g.clock = c }
}

// WithInitialQuota seeds the budget so the first Consume needs no probe.
func WithInitialQuota(remaining int, resetAt time.Time) Option {
	return func(g *Governor) {
		g.state = State{Remaining: max(remaining, 0), ResetAt: resetAt, Known: true}
	}
}

// WithMinWait sets the shortest sleep between probes of an exhausted window.
// Values <= 0 keep DefaultMinWait; the status endpoint has its own quota and
// must not be polled in a tight loop.
func WithMinWait(d time.Duration) Option {
	return func(g *Governor) { g.minWait = d }
}

// WithWaitHook registers a callback invoked before each sleep.
func WithWaitHook(fn func(WaitEvent)) Option {
	return func(g *Governor) { g.onWait = fn }
}

// WithLogger sets the logger used for wait and probe events.
func WithLogger(log logger.Logger) Option {
	return func(g *Governor) { g.logger = log }
}

// NewGovernor creates a governor that refreshes its budget through prober.
func NewGovernor(prober Prober, opts ...Option) *Governor {
	g := &Governor{
		prober:  prober,
		clock:   RealClock(),
		minWait: DefaultMinWait,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.minWait <= 0 {
		g.minWait = DefaultMinWait
	}
	if g.logger == nil {
		g.logger = logger.GetLogger()
	}
	return g
}

// Consume takes one unit of budget. It returns immediately while budget is
// left, including the call that brings the budget to zero. Once the budget
// is zero, or unknown, it probes the server and sleeps until the window
// resets for as long as the probe reports nothing remaining.
//
// A failed probe returns a *errors.GovernorError. Cancelling ctx interrupts
// the sleep and returns ctx.Err() wrapped.
func (g *Governor) Consume(ctx context.Context) error {
	g.gate.Lock()
	defer g.gate.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	g.mu.Lock()
	if g.state.Known && g.state.Remaining > 0 {
		g.state.Remaining--
		g.stats.Consumed++
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	quota, err := g.refresh(ctx)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.state = State{Remaining: quota.Remaining - 1, ResetAt: quota.ResetAt, Known: true}
	g.stats.Consumed++
	g.mu.Unlock()

	g.logger.DebugWithFields("rate limit window refreshed", map[string]interface{}{
		"remaining": quota.Remaining,
		"reset_at":  quota.ResetAt,
	})
	return nil
}

// refresh probes until the window has budget, sleeping between probes.
func (g *Governor) refresh(ctx context.Context) (Quota, error) {
	quota, err := g.probe(ctx)
	if err != nil {
		return Quota{}, err
	}

	for attempt := 1; quota.Remaining <= 0; attempt++ {
		delay := quota.ResetAt.Sub(g.clock.Now())
		if delay < g.minWait {
			delay = g.minWait
		}

		event := WaitEvent{Delay: delay, ResetAt: quota.ResetAt, Attempt: attempt}
		logger.LogRateLimit(g.logger.WithField("attempt", attempt), "rate_limit_status", delay, quota.ResetAt)
		if g.onWait != nil {
			g.onWait(event)
		}

		if err := g.clock.Sleep(ctx, delay); err != nil {
			return Quota{}, fmt.Errorf("waiting for rate limit reset: %w", err)
		}

		g.mu.Lock()
		g.stats.Waits++
		g.stats.Waited += delay
		g.mu.Unlock()

		if quota, err = g.probe(ctx); err != nil {
			return Quota{}, err
		}
	}
	return quota, nil
}

func (g *Governor) probe(ctx context.Context) (Quota, error) {
	g.mu.Lock()
	g.stats.Probes++
	g.mu.Unlock()

	quota, err := g.prober.Probe(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Quota{}, fmt.Errorf("probing rate limit status: %w", ctx.Err())
		}
		g.logger.WithError(err).Error("rate limit status probe failed")
		return Quota{}, &errs.GovernorError{Err: err}
	}
	if quota.Remaining < 0 {
		quota.Remaining = 0
	}
	return quota, nil
}

// Observe records the budget reported alongside a regular response.
// Negative values are clamped to zero.
func (g *Governor) Observe(remaining int, resetAt time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = State{Remaining: max(remaining, 0), ResetAt: resetAt, Known: true}
}

// Invalidate forgets the tracked budget so the next Consume probes first.
func (g *Governor) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Known = false
}

// State returns the current bookkeeping.
func (g *Governor) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Stats returns accumulated counters.
func (g *Governor) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

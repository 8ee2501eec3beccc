package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "followgraph/pkg/errors"
	"followgraph/pkg/logger"
)

// Operation is one attempt of a retried request
type Operation func() error

// OperationWithResult is an attempt that also yields a value
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts bounds the attempts; 0 means unlimited
	MaxAttempts int
	Backoff     BackoffStrategy
	// RetryIf decides whether an error is worth another attempt
	RetryIf func(error) bool
	// SkipBackoff reports errors whose wait happens elsewhere. They are
	// retried immediately; a rate-limited page, for example, blocks in the
	// governor's next Consume until the window resets.
	SkipBackoff func(error) bool
	// OnRetry is called after each failed attempt that will be retried or
	// that exhausted MaxAttempts
	OnRetry func(attempt int, err error, delay time.Duration)
	Context context.Context
	Logger  logger.Logger
}

// DefaultConfig returns three attempts with exponential backoff
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		SkipBackoff: IsRateLimited,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf retries transient API errors. Fatal client, governor and
// access errors, as well as cancellation, are never retried.
func DefaultRetryIf(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var denied *errs.AccessDeniedError
	var govErr *errs.GovernorError
	var clientErr *errs.ClientError
	if errors.As(err, &denied) || errors.As(err, &govErr) || errors.As(err, &clientErr) {
		return false
	}

	var apiErr *errs.Error
	return errors.As(err, &apiErr) && errs.IsRetryable(apiErr.Type)
}

// IsRateLimited reports whether err is a rate-limit API error
func IsRateLimited(err error) bool {
	var apiErr *errs.Error
	return errors.As(err, &apiErr) && apiErr.Type == errs.ErrorTypeRateLimit
}

// Do runs op until it succeeds, fails with an error RetryIf rejects, or
// runs out of attempts.
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	r := runner{cfg: cfg, ctx: cfg.Context, retryIf: cfg.RetryIf, backoff: cfg.Backoff, log: cfg.Logger}
	if r.ctx == nil {
		r.ctx = context.Background()
	}
	if r.retryIf == nil {
		r.retryIf = DefaultRetryIf
	}
	if r.backoff == nil {
		r.backoff = DefaultExponentialBackoff()
	}
	if r.log == nil {
		r.log = logger.NewNopLogger()
	}
	return r.run(op)
}

type runner struct {
	cfg     *Config
	ctx     context.Context
	retryIf func(error) bool
	backoff BackoffStrategy
	log     logger.Logger
}

func (r *runner) run(op Operation) error {
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			if attempt > 1 {
				r.log.DebugWithFields("request succeeded after retry", map[string]interface{}{"attempt": attempt})
			}
			return nil
		}
		if !r.retryIf(err) {
			return err
		}

		delay := r.delay(attempt, err)
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(attempt, err, delay)
		}

		if r.cfg.MaxAttempts > 0 && attempt >= r.cfg.MaxAttempts {
			r.log.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
				"attempts":   attempt,
				"last_error": err.Error(),
			})
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", r.cfg.MaxAttempts, err)
		}

		r.log.WarnWithFields("retrying request", map[string]interface{}{
			"attempt":      attempt,
			"error":        err.Error(),
			"delay_ms":     delay.Milliseconds(),
			"max_attempts": r.cfg.MaxAttempts,
		})
		if err := Wait(r.ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

func (r *runner) delay(attempt int, err error) time.Duration {
	if r.cfg.SkipBackoff != nil && r.cfg.SkipBackoff(err) {
		return 0
	}
	return r.backoff.NextDelay(attempt)
}

// DoWithResult is Do for operations that return a value
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T
	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)
	return result, err
}

package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces outbound requests locally, independent of the server-side
// budget tracked by Governor.
type Limiter interface {
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
}

// Pacer is a token bucket over golang.org/x/time/rate.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows requestsPerMinute requests per minute with the given burst.
// A non-positive rate disables pacing.
func NewPacer(requestsPerMinute, burst int) *Pacer {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	return &Pacer{limiter: rate.NewLimiter(limit, burst)}
}

func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Unlimited reports whether pacing is disabled.
func (p *Pacer) Unlimited() bool {
	return p.limiter.Limit() == rate.Inf
}

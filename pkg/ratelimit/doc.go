// Package ratelimit keeps outbound Twitter API requests within the server's
// rate-limit policy.
//
// Governor owns the single request budget of the process. Every metered
// request is preceded by Consume, which blocks on an exhausted window by
// probing the rate-limit status endpoint and sleeping until the reported
// reset. Responses feed their x-rate-limit headers back through Observe.
//
// Pacer additionally spaces requests locally (requests per minute) so a
// fresh window is not drained in a single burst.
//
// Usage:
//
//	gov := ratelimit.NewGovernor(client, ratelimit.WithWaitHook(func(e ratelimit.WaitEvent) {
//	    fmt.Printf("sleeping %s\n", e.Delay)
//	}))
//	if err := gov.Consume(ctx); err != nil {
//	    return err
//	}
//	// issue request, then
//	gov.Observe(remaining, resetAt)
//
// Time is injected through Clock; tests use FakeClock to simulate waits.
package ratelimit

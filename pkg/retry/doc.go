// Package retry provides exponential backoff and retry logic for transient
// failures of Twitter API page requests.
//
// Basic usage:
//
//	ids, err := retry.DoWithResult(func() ([]int64, error) {
//		return fetchPage(ctx, cursor)
//	}, &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     retry.DefaultExponentialBackoff(),
//		Context:     ctx,
//		Logger:      logger.GetLogger(),
//	})
//
// Only network, rate-limit and server errors are retried by DefaultRetryIf.
// Access-denied, governor and client errors surface immediately. Rate-limit
// errors skip the backoff delay by default (Config.SkipBackoff): the rate
// governor already holds the next attempt until the window resets.
package retry

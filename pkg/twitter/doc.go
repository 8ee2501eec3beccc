// Package twitter is the follower source: an app-only REST client that lists
// followers or friends of an account through the cursored ids endpoints.
//
// The client obtains a bearer token with the client-credentials grant on
// first use and keeps it for its lifetime. Every listing page and user lookup
// first waits on a local Pacer and then takes one unit of budget from the
// client's ratelimit.Governor; the x-rate-limit headers of each ids response
// are fed back with Observe. The governor probes application/rate_limit_status
// through Client.Probe whenever its own count runs out.
//
// Errors follow pkg/errors: protected, suspended or missing accounts give an
// *errors.AccessDeniedError, while transport, HTTP and credential failures
// that survive the retry policy give an *errors.ClientError carrying the URL.
package twitter

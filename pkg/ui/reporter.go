package ui

import (
	"followgraph/pkg/collector"
	"followgraph/pkg/ratelimit"
)

// Reporter receives the events of one collect run. Both the line display and
// the interactive TUI implement it.
type Reporter interface {
	Progress(p collector.Progress)
	RateLimitWait(ev ratelimit.WaitEvent)
	Quota(state ratelimit.State)
	LogInfo(format string, args ...interface{})
	LogWarning(format string, args ...interface{})
	LogError(format string, args ...interface{})
	Done(err error)
}

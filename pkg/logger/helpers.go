package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a completed API request at a level matching its status
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogNodeVisit logs the outcome of expanding one account during traversal
func LogNodeVisit(l Logger, account string, depth, followers int, err error) {
	entry := l.WithFields(map[string]interface{}{
		"account":   account,
		"depth":     depth,
		"followers": followers,
	})

	if err != nil {
		entry.WithError(err).Warn("account skipped")
		return
	}
	entry.Debug("account expanded")
}

// LogRateLimit logs a wait for the rate limit window to reset
func LogRateLimit(l Logger, endpoint string, wait time.Duration, resetAt time.Time) {
	l.WithFields(map[string]interface{}{
		"endpoint": endpoint,
		"wait":     wait.Round(time.Second).String(),
		"reset_at": resetAt,
	}).Warn("rate limit reached, waiting for window reset")
}

// LogCollectProgress logs traversal counters
func LogCollectProgress(l Logger, seed string, visited, edges, pending int) {
	l.WithFields(map[string]interface{}{
		"seed":    seed,
		"visited": visited,
		"edges":   edges,
		"pending": pending,
	}).Info("collection progress")
}

// LogMetrics logs a summary of counters for an operation
func LogMetrics(l Logger, operation string, metrics map[string]interface{}) {
	fields := map[string]interface{}{
		"operation": operation,
		"type":      "metrics",
	}
	for k, v := range metrics {
		fields[k] = v
	}
	l.InfoWithFields("operation metrics", fields)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }

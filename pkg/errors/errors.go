package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork      ErrorType = "network"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeAuth         ErrorType = "auth"
	ErrorTypeParsing      ErrorType = "parsing"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeServerError  ErrorType = "server_error"
	ErrorTypeAccessDenied ErrorType = "access_denied"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode reports whether a response status without a more
// specific API error code is worth retrying. 0 stands for a transport failure.
func IsRetryableStatusCode(statusCode int) bool {
	switch {
	case statusCode == 0, statusCode == 429:
		return true
	case statusCode == 501:
		return false
	default:
		return statusCode >= 500
	}
}

// ClientError is a fatal transport, HTTP or credential failure. It always
// carries the URL that was being requested.
type ClientError struct {
	URL string
	Err error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

// AccessDeniedError reports an account whose follower data cannot be read,
// typically because it is protected or suspended. Callers treat it as an
// account with no known followers.
type AccessDeniedError struct {
	Account string
	URL     string
	Code    int
	Reason  string
}

func (e *AccessDeniedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("access denied for account %s (code %d)", e.Account, e.Code)
	}
	return fmt.Sprintf("access denied for account %s (code %d): %s", e.Account, e.Code, e.Reason)
}

// GovernorError wraps a failed rate-limit status probe.
type GovernorError struct {
	Err error
}

func (e *GovernorError) Error() string {
	return fmt.Sprintf("rate limit status unavailable: %v", e.Err)
}

func (e *GovernorError) Unwrap() error { return e.Err }

// IsAccessDenied reports whether err is or wraps an AccessDeniedError.
func IsAccessDenied(err error) bool {
	var denied *AccessDeniedError
	return errors.As(err, &denied)
}

// IsFatal reports whether err must abort a collection run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !IsAccessDenied(err)
}

package twitter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	errs "followgraph/pkg/errors"
)

// API error codes the client distinguishes
const (
	codeNoUser           = 50
	codeNotFound         = 34
	codeBadAuth          = 32
	codeSuspended        = 63
	codeRateLimited      = 88
	codeInvalidToken     = 89
	codeInternal         = 131
	codeNotAuthorized    = 179
	codeBadAuthData      = 215
	defaultWindowSeconds = 15 * 60
)

// classifyResponse turns a non-200 response into an error. Access-restricted
// accounts yield *errors.AccessDeniedError; everything else an *errors.Error
// whose Type decides whether the request is retried.
func classifyResponse(status int, body []byte, rawURL, subject string) error {
	var parsed apiErrorBody
	// non-JSON bodies (HTML error pages) fall back to the status text
	_ = json.Unmarshal(body, &parsed)

	message := http.StatusText(status)
	if parsed.Error != "" {
		message = parsed.Error
	}

	for _, e := range parsed.Errors {
		if e.Message != "" {
			message = e.Message
		}
		switch e.Code {
		case codeRateLimited:
			return apiErr(errs.ErrorTypeRateLimit, message, e.Code, rawURL)
		case codeInvalidToken, codeBadAuth, codeBadAuthData:
			return apiErr(errs.ErrorTypeAuth, message, e.Code, rawURL)
		case codeNotAuthorized, codeSuspended:
			return &errs.AccessDeniedError{Account: subject, URL: rawURL, Code: e.Code, Reason: message}
		case codeNotFound, codeNoUser:
			return &errs.AccessDeniedError{Account: subject, URL: rawURL, Code: e.Code, Reason: message}
		case codeInternal:
			return apiErr(errs.ErrorTypeServerError, message, e.Code, rawURL)
		}
	}

	switch {
	case status == http.StatusTooManyRequests:
		return apiErr(errs.ErrorTypeRateLimit, message, status, rawURL)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		// protected accounts answer 401 "Not authorized." without an error code
		return &errs.AccessDeniedError{Account: subject, URL: rawURL, Code: status, Reason: message}
	case status == http.StatusNotFound:
		return &errs.AccessDeniedError{Account: subject, URL: rawURL, Code: status, Reason: message}
	case errs.IsRetryableStatusCode(status):
		return apiErr(errs.ErrorTypeServerError, message, status, rawURL)
	default:
		return apiErr(errs.ErrorTypeUnknown, fmt.Sprintf("unexpected status %d: %s", status, message), status, rawURL)
	}
}

func apiErr(t errs.ErrorType, message string, code int, rawURL string) *errs.Error {
	return &errs.Error{Type: t, Message: message, Code: code, URL: rawURL}
}

// parseRateLimit reads the x-rate-limit-* headers. ok is false when the
// response carries no remaining count.
func parseRateLimit(h http.Header) (remaining int, resetAt time.Time, ok bool) {
	raw := strings.TrimSpace(h.Get("X-Rate-Limit-Remaining"))
	if raw == "" {
		return 0, time.Time{}, false
	}
	remaining, err := strconv.Atoi(raw)
	if err != nil {
		return 0, time.Time{}, false
	}
	return remaining, parseRateLimitReset(h.Get("X-Rate-Limit-Reset")), true
}

// parseRateLimitReset parses the unix timestamp of the window reset, falling
// back to one full window from now when missing or invalid.
func parseRateLimitReset(v string) time.Time {
	if ts, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0)
	}
	return time.Now().Add(defaultWindowSeconds * time.Second)
}

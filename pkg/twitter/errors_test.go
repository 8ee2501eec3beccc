package twitter

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"followgraph/pkg/account"
	errs "followgraph/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType errs.ErrorType
	}{
		{"rate limited code", http.StatusTooManyRequests, `{"errors":[{"code":88,"message":"Rate limit exceeded"}]}`, errs.ErrorTypeRateLimit},
		{"rate limited bare", http.StatusTooManyRequests, ``, errs.ErrorTypeRateLimit},
		{"invalid token", http.StatusUnauthorized, `{"errors":[{"code":89,"message":"Invalid or expired token."}]}`, errs.ErrorTypeAuth},
		{"bad auth data", http.StatusBadRequest, `{"errors":[{"code":215,"message":"Bad Authentication data."}]}`, errs.ErrorTypeAuth},
		{"internal", http.StatusInternalServerError, `{"errors":[{"code":131,"message":"Internal error"}]}`, errs.ErrorTypeServerError},
		{"gateway", http.StatusBadGateway, `<html>`, errs.ErrorTypeServerError},
		{"html unavailable", http.StatusServiceUnavailable, `<html><body>Over capacity</body></html>`, errs.ErrorTypeServerError},
		{"not implemented", http.StatusNotImplemented, ``, errs.ErrorTypeUnknown},
		{"teapot", http.StatusTeapot, ``, errs.ErrorTypeUnknown},
		{"protected", http.StatusUnauthorized, `{"error":"Not authorized."}`, errs.ErrorTypeAccessDenied},
		{"not authorized code", http.StatusForbidden, `{"errors":[{"code":179,"message":"Sorry, you are not authorized to see this status."}]}`, errs.ErrorTypeAccessDenied},
		{"no user", http.StatusNotFound, `{"errors":[{"code":50,"message":"User not found."}]}`, errs.ErrorTypeAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyResponse(tt.status, []byte(tt.body), "https://api.example/x", "@someone")
			require.Error(t, err)

			if tt.wantType == errs.ErrorTypeAccessDenied {
				var denied *errs.AccessDeniedError
				require.True(t, errors.As(err, &denied))
				assert.Equal(t, "@someone", denied.Account)
				assert.Equal(t, "https://api.example/x", denied.URL)
				return
			}

			var apiErr *errs.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, "https://api.example/x", apiErr.URL)
		})
	}
}

func TestParseRateLimit(t *testing.T) {
	h := http.Header{}
	_, _, ok := parseRateLimit(h)
	assert.False(t, ok)

	h.Set("x-rate-limit-remaining", "12")
	h.Set("x-rate-limit-reset", "1700000000")
	remaining, resetAt, ok := parseRateLimit(h)
	require.True(t, ok)
	assert.Equal(t, 12, remaining)
	assert.Equal(t, time.Unix(1700000000, 0), resetAt)

	h.Set("x-rate-limit-reset", "soon")
	_, resetAt, ok = parseRateLimit(h)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), resetAt, 5*time.Second)

	h.Set("x-rate-limit-remaining", "many")
	_, _, ok = parseRateLimit(h)
	assert.False(t, ok)
}

func TestEndpointURLs(t *testing.T) {
	raw := IDsURL("https://api.example/1.1/followers/ids.json", account.ID(7), StartCursor, 200)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "7", q.Get("user_id"))
	assert.Equal(t, "-1", q.Get("cursor"))
	assert.Equal(t, "200", q.Get("count"))
	assert.False(t, q.Has("screen_name"))

	raw = IDsURL("https://api.example/ids", account.ScreenName("jack"), 99, 0)
	u, err = url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "jack", u.Query().Get("screen_name"))
	assert.False(t, u.Query().Has("count"))

	assert.Equal(t, "https://api.example/status?resources=friends", RateLimitStatusURL("https://api.example/status", Friends))
	assert.Equal(t, "/followers/ids", Followers.Endpoint())

	_, err = DefaultEndpoints().ids(Relation("mutuals"))
	assert.Error(t, err)
}

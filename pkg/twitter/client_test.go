package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"followgraph/pkg/account"
	"followgraph/pkg/config"
	errs "followgraph/pkg/errors"
	"followgraph/pkg/logger"
	"followgraph/pkg/ratelimit"
	"followgraph/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI emulates the token, rate limit status, ids and users/show endpoints
type fakeAPI struct {
	tokenHits  atomic.Int32
	statusHits atomic.Int32
	idsHits    atomic.Int32

	tokenStatus int
	remaining   int
	idsHandler  http.HandlerFunc
	usersShow   http.HandlerFunc
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	api := &fakeAPI{tokenStatus: http.StatusOK, remaining: 15}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		api.tokenHits.Add(1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "ck", user)
		assert.Equal(t, "cs", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		if api.tokenStatus != http.StatusOK {
			w.WriteHeader(api.tokenStatus)
			fmt.Fprint(w, `{"errors":[{"code":99,"message":"Unable to verify your credentials"}]}`)
			return
		}
		fmt.Fprint(w, `{"token_type":"bearer","access_token":"AAAA"}`)
	})
	mux.HandleFunc("/1.1/application/rate_limit_status.json", func(w http.ResponseWriter, r *http.Request) {
		api.statusHits.Add(1)
		resource := r.URL.Query().Get("resources")
		body := map[string]interface{}{
			"resources": map[string]interface{}{
				resource: map[string]interface{}{
					"/" + resource + "/ids": map[string]interface{}{
						"limit":     15,
						"remaining": api.remaining,
						"reset":     time.Now().Add(15 * time.Minute).Unix(),
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
	ids := func(w http.ResponseWriter, r *http.Request) {
		api.idsHits.Add(1)
		assert.Equal(t, "Bearer AAAA", r.Header.Get("Authorization"))
		api.idsHandler(w, r)
	}
	mux.HandleFunc("/1.1/followers/ids.json", ids)
	mux.HandleFunc("/1.1/friends/ids.json", ids)
	mux.HandleFunc("/1.1/users/show.json", func(w http.ResponseWriter, r *http.Request) {
		api.usersShow(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api, srv
}

func testConfig(srv *httptest.Server) Config {
	return Config{
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		Endpoints: Endpoints{
			Token:           srv.URL + "/oauth2/token",
			RateLimitStatus: srv.URL + "/1.1/application/rate_limit_status.json",
			FollowersIDs:    srv.URL + "/1.1/followers/ids.json",
			FriendsIDs:      srv.URL + "/1.1/friends/ids.json",
			UsersShow:       srv.URL + "/1.1/users/show.json",
		},
		Retry: &retry.Config{
			MaxAttempts: 3,
			Backoff:     &retry.ExponentialBackoff{BaseDelay: time.Millisecond, Multiplier: 1},
		},
	}
}

func newTestClient(cfg Config) (*Client, *ratelimit.FakeClock) {
	clock := ratelimit.NewFakeClock(time.Now())
	return NewClient(cfg, logger.NewNopLogger(), ratelimit.WithClock(clock)), clock
}

func writeIDs(w http.ResponseWriter, remaining int, ids []int64, next int64) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Rate-Limit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-Rate-Limit-Reset", strconv.FormatInt(time.Now().Add(10*time.Minute).Unix(), 10))
	_ = json.NewEncoder(w).Encode(IDsPage{IDs: ids, NextCursor: next})
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{}, logger.NewNopLogger())

	assert.Equal(t, DefaultEndpoints(), c.cfg.Endpoints)
	assert.Equal(t, Followers, c.cfg.Relation)
	assert.Equal(t, DefaultPageSize, c.cfg.PageSize)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
	assert.NotNil(t, c.Governor())
}

func TestFetchFollowersMergesPages(t *testing.T) {
	api, srv := newFakeAPI(t)
	var cursors []string
	api.idsHandler = func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		cursors = append(cursors, q.Get("cursor"))
		assert.Equal(t, "42", q.Get("user_id"))
		assert.Empty(t, q.Get("screen_name"))
		assert.Equal(t, "5000", q.Get("count"))

		switch q.Get("cursor") {
		case "-1":
			writeIDs(w, 9, []int64{1, 2}, 7)
		case "7":
			writeIDs(w, 8, []int64{3}, 0)
		default:
			t.Errorf("unexpected cursor %q", q.Get("cursor"))
		}
	}

	c, _ := newTestClient(testConfig(srv))
	got, err := c.FetchFollowers(context.Background(), account.ID(42))
	require.NoError(t, err)

	assert.Equal(t, account.FromIDs([]int64{1, 2, 3}), got)
	assert.Equal(t, []string{"-1", "7"}, cursors)
	assert.Equal(t, int32(1), api.tokenHits.Load())
	assert.Equal(t, int32(1), api.statusHits.Load())

	state := c.Governor().State()
	assert.True(t, state.Known)
	assert.Equal(t, 8, state.Remaining)
}

func TestFetchFriendsUsesScreenName(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.idsHandler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1.1/friends/ids.json", r.URL.Path)
		assert.Equal(t, "jack", r.URL.Query().Get("screen_name"))
		writeIDs(w, 14, []int64{9}, 0)
	}

	cfg := testConfig(srv)
	cfg.Relation = Friends
	c, _ := newTestClient(cfg)

	got, err := c.FetchFriends(context.Background(), account.ScreenName("@jack"))
	require.NoError(t, err)
	assert.Equal(t, []account.Identifier{account.ID(9)}, got)
}

func TestFetchFollowersProtectedAccount(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.idsHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"request":"/1.1/followers/ids.json","error":"Not authorized."}`)
	}

	c, _ := newTestClient(testConfig(srv))
	got, err := c.FetchFollowers(context.Background(), account.ID(5))

	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errs.IsAccessDenied(err))
	assert.False(t, errs.IsFatal(err))

	var denied *errs.AccessDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, "5", denied.Account)
	assert.Equal(t, "Not authorized.", denied.Reason)
	assert.Equal(t, int32(1), api.idsHits.Load())
}

func TestFetchFollowersErrorCodes(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDenied bool
		wantHits   int32
	}{
		{"suspended", http.StatusForbidden, `{"errors":[{"code":63,"message":"User has been suspended."}]}`, true, 1},
		{"not found", http.StatusNotFound, `{"errors":[{"code":34,"message":"Sorry, that page does not exist."}]}`, true, 1},
		{"invalid token", http.StatusUnauthorized, `{"errors":[{"code":89,"message":"Invalid or expired token."}]}`, false, 1},
		{"bad request", http.StatusBadRequest, `{}`, false, 1},
		{"server error", http.StatusServiceUnavailable, `{"errors":[{"code":130,"message":"Over capacity"}]}`, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, srv := newFakeAPI(t)
			api.idsHandler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}

			c, _ := newTestClient(testConfig(srv))
			_, err := c.FetchFollowers(context.Background(), account.ID(1))
			require.Error(t, err)

			assert.Equal(t, tt.wantDenied, errs.IsAccessDenied(err))
			if !tt.wantDenied {
				var clientErr *errs.ClientError
				require.True(t, errors.As(err, &clientErr), "got %T: %v", err, err)
				assert.Contains(t, clientErr.URL, "/1.1/followers/ids.json")
				assert.Contains(t, clientErr.Error(), clientErr.URL)
			}
			assert.Equal(t, tt.wantHits, api.idsHits.Load())
		})
	}
}

func TestFetchFollowersRetriesServerError(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.idsHandler = func(w http.ResponseWriter, r *http.Request) {
		if api.idsHits.Load() == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeIDs(w, 13, []int64{4, 5}, 0)
	}

	c, _ := newTestClient(testConfig(srv))
	got, err := c.FetchFollowers(context.Background(), account.ID(1))
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Equal(t, int32(2), api.idsHits.Load())
}

func TestFetchFollowersTooManyRequestsReprobes(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.idsHandler = func(w http.ResponseWriter, r *http.Request) {
		if api.idsHits.Load() == 1 {
			w.Header().Set("X-Rate-Limit-Remaining", "0")
			w.Header().Set("X-Rate-Limit-Reset", strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"errors":[{"code":88,"message":"Rate limit exceeded"}]}`)
			return
		}
		writeIDs(w, 14, []int64{7}, 0)
	}

	c, _ := newTestClient(testConfig(srv))
	got, err := c.FetchFollowers(context.Background(), account.ID(1))
	require.NoError(t, err)

	assert.Equal(t, []account.Identifier{account.ID(7)}, got)
	// one probe for the unknown initial budget, one after the 429 zeroed it
	assert.Equal(t, int32(2), api.statusHits.Load())
	assert.Equal(t, 2, c.Governor().Stats().Probes)
}

func TestTooManyRequestsWithoutHeadersForgetsBudget(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.idsHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}

	cfg := testConfig(srv)
	cfg.Retry.MaxAttempts = 1
	c, _ := newTestClient(cfg)

	_, err := c.FetchFollowers(context.Background(), account.ID(1))
	require.Error(t, err)

	assert.Equal(t, int32(1), api.statusHits.Load())
	assert.False(t, c.Governor().State().Known, "next Consume must ask the status endpoint")
}

func TestConfigFromPacer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RateLimit.RequestsPerMinute = 0
	assert.Nil(t, ConfigFrom(cfg).Pacer, "unlimited pacing installs no pacer")

	cfg.RateLimit.RequestsPerMinute = 60
	assert.NotNil(t, ConfigFrom(cfg).Pacer)
}

func TestFetchFollowersWaitsForExhaustedWindow(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.remaining = 0
	api.idsHandler = func(w http.ResponseWriter, r *http.Request) {
		writeIDs(w, 14, []int64{1}, 0)
	}

	var waits []ratelimit.WaitEvent
	clock := ratelimit.NewFakeClock(time.Now())
	c := NewClient(testConfig(srv), logger.NewNopLogger(),
		ratelimit.WithClock(clock),
		ratelimit.WithWaitHook(func(e ratelimit.WaitEvent) {
			waits = append(waits, e)
			api.remaining = 15
		}),
	)

	_, err := c.FetchFollowers(context.Background(), account.ID(1))
	require.NoError(t, err)

	require.Len(t, waits, 1)
	assert.Greater(t, waits[0].Delay, 14*time.Minute)
	assert.Equal(t, int32(2), api.statusHits.Load())
	assert.Len(t, clock.Slept(), 1)
}

func TestTokenFailureIsClientError(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.tokenStatus = http.StatusForbidden

	c, _ := newTestClient(testConfig(srv))
	_, err := c.Token(context.Background())
	require.Error(t, err)

	var clientErr *errs.ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, srv.URL+"/oauth2/token", clientErr.URL)
}

func TestTokenFailureSurfacesThroughFetch(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.tokenStatus = http.StatusForbidden
	api.idsHandler = func(w http.ResponseWriter, r *http.Request) {
		t.Error("ids endpoint must not be reached without a token")
	}

	c, _ := newTestClient(testConfig(srv))
	_, err := c.FetchFollowers(context.Background(), account.ID(1))
	require.Error(t, err)

	// the first probe needs the token, so the governor reports the failure
	var govErr *errs.GovernorError
	require.True(t, errors.As(err, &govErr))
	var clientErr *errs.ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Contains(t, clientErr.URL, "/oauth2/token")
}

func TestTokenRequiresCredentials(t *testing.T) {
	_, srv := newFakeAPI(t)
	cfg := testConfig(srv)
	cfg.ConsumerSecret = ""

	c, _ := newTestClient(cfg)
	_, err := c.Token(context.Background())

	var clientErr *errs.ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Contains(t, err.Error(), "consumer key and secret are required")
}

func TestPreissuedBearerToken(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.idsHandler = func(w http.ResponseWriter, r *http.Request) {
		writeIDs(w, 14, nil, 0)
	}

	cfg := testConfig(srv)
	cfg.ConsumerKey, cfg.ConsumerSecret = "", ""
	cfg.BearerToken = "AAAA"
	c, _ := newTestClient(cfg)

	got, err := c.FetchFollowers(context.Background(), account.ID(1))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(0), api.tokenHits.Load())
}

func TestProbe(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.remaining = 11

	c, _ := newTestClient(testConfig(srv))
	quota, err := c.Probe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 11, quota.Remaining)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), quota.ResetAt, 5*time.Second)
}

func TestProbeMissingEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"resources":{}}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv)
	cfg.BearerToken = "AAAA"
	c, _ := newTestClient(cfg)

	_, err := c.Probe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/followers/ids")
}

func TestResolve(t *testing.T) {
	api, srv := newFakeAPI(t)
	var lookups atomic.Int32
	api.usersShow = func(w http.ResponseWriter, r *http.Request) {
		lookups.Add(1)
		assert.Equal(t, "jack", r.URL.Query().Get("screen_name"))
		fmt.Fprint(w, `{"id":12,"id_str":"12","screen_name":"jack"}`)
	}

	c, _ := newTestClient(testConfig(srv))

	id, err := c.Resolve(context.Background(), account.ScreenName("jack"))
	require.NoError(t, err)
	assert.Equal(t, account.ID(12), id)

	same, err := c.Resolve(context.Background(), account.ID(99))
	require.NoError(t, err)
	assert.Equal(t, account.ID(99), same)
	assert.Equal(t, int32(1), lookups.Load())

	again, err := c.Resolve(context.Background(), account.ScreenName("Jack"))
	require.NoError(t, err)
	assert.Equal(t, account.ID(12), again)
	assert.Equal(t, int32(1), lookups.Load(), "cached lookup makes no request")

	user, err := c.LookupUser(context.Background(), account.ID(12))
	require.NoError(t, err)
	assert.Equal(t, "jack", user.ScreenName)
	assert.Equal(t, int32(1), lookups.Load())
	assert.Equal(t, 1, c.Governor().Stats().Consumed, "the lookup spends one unit of the tracked budget")
}

func TestResolveUnknownUser(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.usersShow = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errors":[{"code":50,"message":"User not found."}]}`)
	}

	c, _ := newTestClient(testConfig(srv))
	_, err := c.Resolve(context.Background(), account.ScreenName("nobody_here"))
	assert.True(t, errs.IsAccessDenied(err))
}

func TestFetchFollowersCancelled(t *testing.T) {
	_, srv := newFakeAPI(t)
	c, _ := newTestClient(testConfig(srv))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchFollowers(ctx, account.ID(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchFollowersInvalidIdentifier(t *testing.T) {
	c := NewClient(Config{}, logger.NewNopLogger())
	_, err := c.FetchFollowers(context.Background(), account.Identifier{})
	assert.ErrorIs(t, err, account.ErrInvalidIdentifier)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"followgraph/pkg/account"
	"followgraph/pkg/auth"
	"followgraph/pkg/collector"
	"followgraph/pkg/config"
	"followgraph/pkg/export"
	"followgraph/pkg/graph"
	"followgraph/pkg/logger"
	"followgraph/pkg/ratelimit"
	"followgraph/pkg/ui"
)

type recordingReporter struct {
	mu       sync.Mutex
	progress []collector.Progress
	quotas   int
	infos    []string
	doneErr  error
	done     bool
}

func (r *recordingReporter) Progress(p collector.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *recordingReporter) RateLimitWait(ratelimit.WaitEvent) {}

func (r *recordingReporter) Quota(ratelimit.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotas++
}

func (r *recordingReporter) LogInfo(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, fmt.Sprintf(format, args...))
}

func (r *recordingReporter) LogWarning(string, ...interface{}) {}
func (r *recordingReporter) LogError(string, ...interface{})   {}

func (r *recordingReporter) Done(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = true
	r.doneErr = err
}

var _ ui.Reporter = (*recordingReporter)(nil)

// newFollowerServer serves a fixed follower listing per user id
func newFollowerServer(t *testing.T, followers map[string][]int64) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/1.1/application/rate_limit_status.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"resources":{"followers":{"/followers/ids":{"limit":15,"remaining":15,"reset":%d}}}}`,
			time.Now().Add(15*time.Minute).Unix())
	})
	mux.HandleFunc("/1.1/followers/ids.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer TOKEN", r.Header.Get("Authorization"))
		ids, ok := followers[r.URL.Query().Get("user_id")]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"errors":[{"code":179,"message":"Not authorized."}]}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Rate-Limit-Remaining", "14")
		w.Header().Set("X-Rate-Limit-Reset", strconv.FormatInt(time.Now().Add(15*time.Minute).Unix(), 10))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ids": ids, "next_cursor": 0})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testCollectConfig(srv *httptest.Server, output string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Twitter.BearerToken = "TOKEN"
	cfg.Endpoints.TokenURL = srv.URL + "/oauth2/token"
	cfg.Endpoints.RateLimitStatus = srv.URL + "/1.1/application/rate_limit_status.json"
	cfg.Endpoints.FollowersIDs = srv.URL + "/1.1/followers/ids.json"
	cfg.Endpoints.FriendsIDs = srv.URL + "/1.1/friends/ids.json"
	cfg.Endpoints.UsersShow = srv.URL + "/1.1/users/show.json"
	cfg.Collect.MaxDepth = 2
	cfg.Retry.MaxAttempts = 1
	cfg.Output.Path = output
	cfg.Output.Format = config.FormatJSON
	cfg.Notifications.Enabled = false
	return cfg
}

func TestCollectJobWritesGraph(t *testing.T) {
	srv := newFollowerServer(t, map[string][]int64{
		"1": {2, 3},
		"2": {3},
	})
	output := filepath.Join(t.TempDir(), "graph.json")
	reporter := &recordingReporter{}

	job := &collectJob{
		cfg:      testCollectConfig(srv, output),
		seed:     account.ID(1),
		log:      logger.NewNopLogger(),
		reporter: reporter,
		notifier: ui.NewNotifier(ui.NotifyNone),
	}
	require.NoError(t, job.run(context.Background()))

	assert.True(t, reporter.done)
	assert.NoError(t, reporter.doneErr)
	assert.NotEmpty(t, reporter.progress)
	assert.Equal(t, len(reporter.progress), reporter.quotas)
	require.Len(t, reporter.infos, 1)
	assert.Contains(t, reporter.infos[0], output)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	g, err := export.ReadJSON(f)
	require.NoError(t, err)

	assert.True(t, g.HasEdge(account.ID(2), account.ID(1)))
	assert.True(t, g.HasEdge(account.ID(3), account.ID(1)))
	assert.True(t, g.HasEdge(account.ID(3), account.ID(2)))
	assert.Equal(t, 3, g.NodeCount())
}

func TestTopFollowed(t *testing.T) {
	g := graph.New()
	g.AddEdge(account.ID(2), account.ID(1))
	g.AddEdge(account.ID(3), account.ID(1))
	g.AddEdge(account.ID(3), account.ID(2))
	g.SetLabel(account.ID(1), "@seed")

	assert.Equal(t, []string{"@seed (2)", "2 (1)"}, topFollowed(g, 5))
	assert.Equal(t, []string{"@seed (2)"}, topFollowed(g, 1))
	assert.Empty(t, topFollowed(graph.New(), 5))
}

func TestCollectJobReportsFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/1.1/application/rate_limit_status.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	output := filepath.Join(t.TempDir(), "graph.dot")
	reporter := &recordingReporter{}
	job := &collectJob{
		cfg:      testCollectConfig(srv, output),
		seed:     account.ID(1),
		log:      logger.NewNopLogger(),
		reporter: reporter,
		notifier: ui.NewNotifier(ui.NotifyNone),
	}

	err := job.run(context.Background())
	require.Error(t, err)
	assert.True(t, reporter.done)
	assert.Equal(t, err, reporter.doneErr)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no output on failure")
}

func TestCollectFlagsOnlyChanged(t *testing.T) {
	cmd := &cobra.Command{Use: "collect"}
	cmd.Flags().AddFlagSet(collectCmd.Flags())
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	t.Cleanup(func() {
		depth, relation, noResolve = 1, config.RelationFollowers, false
		for _, name := range []string{"depth", "relation", "no-resolve"} {
			cmd.Flags().Lookup(name).Changed = false
		}
	})

	assert.Empty(t, collectFlags(cmd))

	require.NoError(t, cmd.Flags().Parse([]string{"--depth", "3", "--relation", "friends", "--no-resolve"}))
	flags := collectFlags(cmd)
	assert.Equal(t, map[string]interface{}{
		"depth":        3,
		"relation":     "friends",
		"resolve-seed": false,
	}, flags)

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, 3, cfg.Collect.MaxDepth)
	assert.Equal(t, config.RelationFriends, cfg.Collect.Relation)
	assert.False(t, cfg.Collect.ResolveSeed)
}

func TestApplyStoredCredentials(t *testing.T) {
	store := auth.NewMemoryStore()
	require.NoError(t, store.Store(&auth.Credentials{Profile: auth.DefaultProfile, ConsumerKey: "dk", ConsumerSecret: "ds"}))
	require.NoError(t, store.Store(&auth.Credentials{Profile: "research", BearerToken: "BT"}))
	newManager := func() (*auth.Manager, error) { return auth.NewManagerWithStores(store), nil }

	t.Run("config credentials win", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Twitter.ConsumerKey, cfg.Twitter.ConsumerSecret = "ck", "cs"
		require.NoError(t, applyStoredCredentials(cfg, "", func() (*auth.Manager, error) {
			return nil, errors.New("not called")
		}))
		assert.Equal(t, "ck", cfg.Twitter.ConsumerKey)
	})

	t.Run("default profile", func(t *testing.T) {
		cfg := config.DefaultConfig()
		require.NoError(t, applyStoredCredentials(cfg, "", newManager))
		assert.Equal(t, "dk", cfg.Twitter.ConsumerKey)
		assert.Equal(t, "ds", cfg.Twitter.ConsumerSecret)
	})

	t.Run("named profile", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Twitter.ConsumerKey, cfg.Twitter.ConsumerSecret = "ck", "cs"
		require.NoError(t, applyStoredCredentials(cfg, "research", newManager))
		assert.Equal(t, "BT", cfg.Twitter.BearerToken)
		assert.Empty(t, cfg.Twitter.ConsumerKey)
	})

	t.Run("missing profile", func(t *testing.T) {
		cfg := config.DefaultConfig()
		err := applyStoredCredentials(cfg, "absent", newManager)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth login")
	})
}

func TestPrintProfiles(t *testing.T) {
	var buf bytes.Buffer
	printProfiles(&buf, nil)
	assert.Contains(t, buf.String(), "No stored profiles")

	buf.Reset()
	printProfiles(&buf, []*auth.Credentials{{
		Profile:        "default",
		ConsumerKey:    "consumerkey12345",
		ConsumerSecret: "consumersecret12345",
		LastModified:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}})
	out := buf.String()
	assert.Contains(t, out, "default")
	assert.Contains(t, out, "cons...2345")
	assert.NotContains(t, out, "consumersecret12345")
	assert.Contains(t, out, "2024-03-01 12:00")
}

func TestWriteMaskedConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Twitter.ConsumerKey = "consumerkey12345"
	cfg.Twitter.ConsumerSecret = "short"

	var buf bytes.Buffer
	require.NoError(t, writeMaskedConfig(&buf, cfg))
	out := buf.String()
	assert.Contains(t, out, "cons...2345")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "consumerkey12345")
	assert.Equal(t, "consumerkey12345", cfg.Twitter.ConsumerKey, "original is untouched")
}

func TestConfigInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "followgraph.yaml")
	configFile = path
	t.Cleanup(func() { configFile = "" })

	require.NoError(t, runConfigInit(initCmd, nil))

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	assert.Equal(t, config.DefaultConfig().Collect, cfg.Collect)

	assert.Error(t, runConfigInit(initCmd, nil), "existing file is not replaced")
}

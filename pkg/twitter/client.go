package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"followgraph/pkg/config"
	errs "followgraph/pkg/errors"
	"followgraph/pkg/logger"
	"followgraph/pkg/ratelimit"
	"followgraph/pkg/retry"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// userCacheSize bounds the users/show results kept per client
const userCacheSize = 1024

// Config holds everything the client needs to talk to the API
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	// BearerToken skips token acquisition when set
	BearerToken string
	UserAgent   string
	Timeout     time.Duration
	Endpoints   Endpoints
	// Relation is the listing whose budget the governor tracks
	Relation Relation
	PageSize int
	// Retry controls retries of transient page failures; nil uses retry defaults
	Retry *retry.Config
	// Pacer spaces requests locally; nil disables pacing
	Pacer      ratelimit.Limiter
	HTTPClient *http.Client
}

// ConfigFrom maps application settings onto a client Config
func ConfigFrom(cfg *config.Config) Config {
	out := Config{
		ConsumerKey:    cfg.Twitter.ConsumerKey,
		ConsumerSecret: cfg.Twitter.ConsumerSecret,
		BearerToken:    cfg.Twitter.BearerToken,
		UserAgent:      cfg.Twitter.UserAgent,
		Timeout:        cfg.Twitter.Timeout,
		Endpoints: Endpoints{
			Token:           cfg.Endpoints.TokenURL,
			RateLimitStatus: cfg.Endpoints.RateLimitStatus,
			FollowersIDs:    cfg.Endpoints.FollowersIDs,
			FriendsIDs:      cfg.Endpoints.FriendsIDs,
			UsersShow:       cfg.Endpoints.UsersShow,
		},
		Relation: Relation(cfg.Collect.Relation),
		PageSize: cfg.Collect.PageSize,
		Retry: &retry.Config{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Backoff: &retry.ExponentialBackoff{
				BaseDelay:    cfg.Retry.BaseDelay,
				MaxDelay:     cfg.Retry.MaxDelay,
				Multiplier:   cfg.Retry.Multiplier,
				JitterFactor: 0.1,
			},
		},
	}
	if pacer := ratelimit.NewPacer(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize); !pacer.Unlimited() {
		out.Pacer = pacer
	}
	return out
}

// Client is an app-only REST client. Every metered request passes through
// the client's Governor.
type Client struct {
	cfg        Config
	httpClient *http.Client
	governor   *ratelimit.Governor
	logger     logger.Logger
	users      *lru.Cache[string, *User]

	tokenMu sync.Mutex
	token   string
}

// NewClient creates a client and the governor that meters it. The client
// itself serves as the governor's status prober.
func NewClient(cfg Config, log logger.Logger, opts ...ratelimit.Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Endpoints == (Endpoints{}) {
		cfg.Endpoints = DefaultEndpoints()
	}
	if cfg.Relation == "" {
		cfg.Relation = Followers
	}
	if cfg.PageSize <= 0 || cfg.PageSize > DefaultPageSize {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "followgraph/1.0"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	// lru.New only fails for a non-positive size
	users, _ := lru.New[string, *User](userCacheSize)

	c := &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     log,
		users:      users,
		token:      cfg.BearerToken,
	}
	c.governor = ratelimit.NewGovernor(c, append([]ratelimit.Option{ratelimit.WithLogger(log)}, opts...)...)
	return c
}

// Governor returns the governor metering this client
func (c *Client) Governor() *ratelimit.Governor {
	return c.governor
}

// Token returns the bearer token, obtaining it with the client-credentials
// grant on first use. The token is cached for the life of the client.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	tokenURL := c.cfg.Endpoints.Token
	if c.cfg.ConsumerKey == "" || c.cfg.ConsumerSecret == "" {
		return "", &errs.ClientError{URL: tokenURL, Err: errors.New("consumer key and secret are required")}
	}

	cc := clientcredentials.Config{
		ClientID:     c.cfg.ConsumerKey,
		ClientSecret: c.cfg.ConsumerSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	c.logger.DebugWithFields("requesting bearer token", map[string]interface{}{
		"url": tokenURL,
	})

	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient))
	if err != nil {
		c.logger.WithError(err).Error("bearer token request failed")
		return "", &errs.ClientError{URL: tokenURL, Err: err}
	}
	if tok.AccessToken == "" || !strings.EqualFold(tok.Type(), "bearer") {
		return "", &errs.ClientError{URL: tokenURL, Err: fmt.Errorf("unexpected token type %q", tok.TokenType)}
	}

	c.token = tok.AccessToken
	return c.token, nil
}

// meter waits for the local pacer and takes one unit of server budget
func (c *Client) meter(ctx context.Context) error {
	if c.cfg.Pacer != nil {
		if err := c.cfg.Pacer.Wait(ctx); err != nil {
			return fmt.Errorf("pacing request: %w", err)
		}
	}
	return c.governor.Consume(ctx)
}

// getJSON performs an authenticated GET and decodes the body into target.
// When observe is set, rate-limit headers on the response update the governor.
func (c *Client) getJSON(ctx context.Context, rawURL string, observe bool, subject string, target interface{}) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &errs.ClientError{URL: rawURL, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("request %s: %w", rawURL, ctxErr)
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      rawURL,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return apiErr(errs.ErrorTypeNetwork, fmt.Sprintf("network error: %v", err), 0, rawURL)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, rawURL, resp.StatusCode, time.Since(start))

	if observe {
		if remaining, resetAt, ok := parseRateLimit(resp.Header); ok {
			c.governor.Observe(remaining, resetAt)
		} else if resp.StatusCode == http.StatusTooManyRequests {
			// no headers to go by; the next Consume asks the status endpoint
			c.governor.Invalidate()
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr(errs.ErrorTypeNetwork, fmt.Sprintf("failed to read response body: %v", err), resp.StatusCode, rawURL)
	}

	if resp.StatusCode != http.StatusOK {
		return classifyResponse(resp.StatusCode, body, rawURL, subject)
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          rawURL,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return apiErr(errs.ErrorTypeParsing, fmt.Sprintf("failed to parse JSON: %v", err), resp.StatusCode, rawURL)
	}

	return nil
}

func (c *Client) retryConfig(ctx context.Context) *retry.Config {
	rc := retry.DefaultConfig()
	if c.cfg.Retry != nil {
		if c.cfg.Retry.MaxAttempts > 0 {
			rc.MaxAttempts = c.cfg.Retry.MaxAttempts
		}
		if c.cfg.Retry.Backoff != nil {
			rc.Backoff = c.cfg.Retry.Backoff
		}
		rc.OnRetry = c.cfg.Retry.OnRetry
	}
	rc.Context = ctx
	rc.Logger = c.logger
	return rc
}

// surface maps the final error of a request onto the error taxonomy: access,
// governor, client and cancellation errors pass through, anything else
// becomes a *errors.ClientError for rawURL.
func surface(rawURL string, err error) error {
	var (
		denied    *errs.AccessDeniedError
		govErr    *errs.GovernorError
		clientErr *errs.ClientError
	)
	switch {
	case errors.As(err, &denied), errors.As(err, &govErr), errors.As(err, &clientErr):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return &errs.ClientError{URL: rawURL, Err: err}
	}
}

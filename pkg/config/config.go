package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the follower graph collector
type Config struct {
	// Twitter application credentials
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// API endpoint URLs
	Endpoints EndpointsConfig `yaml:"endpoints" json:"endpoints"`

	// Traversal settings
	Collect CollectConfig `yaml:"collect" json:"collect"`

	// Local request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry policy for transient page failures
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Graph export settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TwitterConfig holds the consumer key pair used to obtain a bearer token
type TwitterConfig struct {
	ConsumerKey    string        `yaml:"consumer_key" json:"consumer_key"`
	ConsumerSecret string        `yaml:"consumer_secret" json:"consumer_secret"`
	BearerToken    string        `yaml:"bearer_token" json:"bearer_token"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
}

// HasCredentials reports whether a token can be obtained without a stored account
func (t TwitterConfig) HasCredentials() bool {
	return t.BearerToken != "" || (t.ConsumerKey != "" && t.ConsumerSecret != "")
}

// EndpointsConfig holds the URLs of every API call the collector makes
type EndpointsConfig struct {
	TokenURL        string `yaml:"token_url" json:"token_url"`
	RateLimitStatus string `yaml:"rate_limit_status" json:"rate_limit_status"`
	FollowersIDs    string `yaml:"followers_ids" json:"followers_ids"`
	FriendsIDs      string `yaml:"friends_ids" json:"friends_ids"`
	UsersShow       string `yaml:"users_show" json:"users_show"`
}

// CollectConfig holds traversal settings
type CollectConfig struct {
	StartAccount string `yaml:"start_account" json:"start_account"`
	MaxDepth     int    `yaml:"max_depth" json:"max_depth"`
	Relation     string `yaml:"relation" json:"relation"`
	MarkVisited  string `yaml:"mark_visited" json:"mark_visited"`
	ResolveSeed  bool   `yaml:"resolve_seed" json:"resolve_seed"`
	PageSize     int    `yaml:"page_size" json:"page_size"`
}

// RateLimitConfig holds local pacing on top of the server-side budget
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	MinWait           time.Duration `yaml:"min_wait" json:"min_wait"`
}

// RetryConfig holds retry settings for page requests
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// OutputConfig holds graph export configuration
type OutputConfig struct {
	Path              string `yaml:"path" json:"path"`
	Format            string `yaml:"format" json:"format"`
	OverwriteExisting bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	OnRateLimit      bool   `yaml:"on_rate_limit" json:"on_rate_limit"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

const (
	RelationFollowers = "followers"
	RelationFriends   = "friends"

	MarkVisitedEarly = "early"
	MarkVisitedLate  = "late"

	FormatDOT  = "dot"
	FormatJSON = "json"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			UserAgent: "followgraph/1.0",
			Timeout:   30 * time.Second,
		},
		Endpoints: EndpointsConfig{
			TokenURL:        "https://api.twitter.com/oauth2/token",
			RateLimitStatus: "https://api.twitter.com/1.1/application/rate_limit_status.json",
			FollowersIDs:    "https://api.twitter.com/1.1/followers/ids.json",
			FriendsIDs:      "https://api.twitter.com/1.1/friends/ids.json",
			UsersShow:       "https://api.twitter.com/1.1/users/show.json",
		},
		Collect: CollectConfig{
			MaxDepth:    1,
			Relation:    RelationFollowers,
			MarkVisited: MarkVisitedEarly,
			ResolveSeed: true,
			PageSize:    5000,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
			BurstSize:         1,
			MinWait:           time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    time.Minute,
			Multiplier:  2.0,
		},
		Output: OutputConfig{
			Path:              "followers.dot",
			Format:            FormatDOT,
			OverwriteExisting: true,
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			OnComplete:       true,
			OnError:          true,
			OnRateLimit:      true,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from FOLLOWGRAPH_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}

	setString("FOLLOWGRAPH_CONSUMER_KEY", &c.Twitter.ConsumerKey)
	setString("FOLLOWGRAPH_CONSUMER_SECRET", &c.Twitter.ConsumerSecret)
	setString("FOLLOWGRAPH_BEARER_TOKEN", &c.Twitter.BearerToken)
	setString("FOLLOWGRAPH_USER_AGENT", &c.Twitter.UserAgent)
	setString("FOLLOWGRAPH_START_ACCOUNT", &c.Collect.StartAccount)
	setInt("FOLLOWGRAPH_MAX_DEPTH", &c.Collect.MaxDepth)
	setString("FOLLOWGRAPH_RELATION", &c.Collect.Relation)
	setInt("FOLLOWGRAPH_REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)
	setInt("FOLLOWGRAPH_MAX_ATTEMPTS", &c.Retry.MaxAttempts)
	setString("FOLLOWGRAPH_OUTPUT", &c.Output.Path)
	setString("FOLLOWGRAPH_FORMAT", &c.Output.Format)
	setString("FOLLOWGRAPH_LOG_LEVEL", &c.Logging.Level)
	setString("FOLLOWGRAPH_LOG_FILE", &c.Logging.File)

	if v := os.Getenv("FOLLOWGRAPH_NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // no config file is not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".followgraph.yaml",
		".followgraph.yml",
		filepath.Join(home, ".config", "followgraph", "config.yaml"),
		filepath.Join(home, ".config", "followgraph", "config.yml"),
		filepath.Join(home, ".followgraph.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are not
// required here because they may come from the credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.Twitter.Timeout <= 0 {
		errs = append(errs, errors.New("twitter timeout must be positive"))
	}
	if (c.Twitter.ConsumerKey == "") != (c.Twitter.ConsumerSecret == "") {
		errs = append(errs, errors.New("consumer key and consumer secret must be set together"))
	}

	for name, u := range map[string]string{
		"token_url":         c.Endpoints.TokenURL,
		"rate_limit_status": c.Endpoints.RateLimitStatus,
		"followers_ids":     c.Endpoints.FollowersIDs,
		"friends_ids":       c.Endpoints.FriendsIDs,
		"users_show":        c.Endpoints.UsersShow,
	} {
		if u == "" {
			errs = append(errs, fmt.Errorf("endpoint %s is required", name))
		}
	}

	if c.Collect.MaxDepth < 0 {
		errs = append(errs, errors.New("max depth cannot be negative"))
	}
	switch c.Collect.Relation {
	case RelationFollowers, RelationFriends:
	default:
		errs = append(errs, fmt.Errorf("invalid relation %q (want followers or friends)", c.Collect.Relation))
	}
	switch c.Collect.MarkVisited {
	case MarkVisitedEarly, MarkVisitedLate:
	default:
		errs = append(errs, fmt.Errorf("invalid mark_visited %q (want early or late)", c.Collect.MarkVisited))
	}
	if c.Collect.PageSize <= 0 || c.Collect.PageSize > 5000 {
		errs = append(errs, errors.New("page size must be between 1 and 5000"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}
	if c.RateLimit.MinWait <= 0 {
		errs = append(errs, errors.New("min wait must be positive"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}

	switch strings.ToLower(c.Output.Format) {
	case FormatDOT, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("invalid output format %q (want dot or json)", c.Output.Format))
	}
	if c.Output.Path == "" {
		errs = append(errs, errors.New("output path is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["consumer-key"].(string); ok && v != "" {
		c.Twitter.ConsumerKey = v
	}
	if v, ok := flags["consumer-secret"].(string); ok && v != "" {
		c.Twitter.ConsumerSecret = v
	}
	if v, ok := flags["bearer-token"].(string); ok && v != "" {
		c.Twitter.BearerToken = v
	}
	if v, ok := flags["depth"].(int); ok {
		c.Collect.MaxDepth = v
	}
	if v, ok := flags["relation"].(string); ok && v != "" {
		c.Collect.Relation = v
	}
	if v, ok := flags["mark-visited"].(string); ok && v != "" {
		c.Collect.MarkVisited = v
	}
	if v, ok := flags["resolve-seed"].(bool); ok {
		c.Collect.ResolveSeed = v
	}
	if v, ok := flags["rate-limit"].(int); ok {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["max-attempts"].(int); ok && v > 0 {
		c.Retry.MaxAttempts = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Path = v
	}
	if v, ok := flags["format"].(string); ok && v != "" {
		c.Output.Format = v
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".followgraph.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

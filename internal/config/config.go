// Package config loads synapse CLI settings from defaults, a TOML file,
// SYNAPSE_* environment variables and command-line flags, in that order.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/synapse-news/synapse-client/pkg/logging"
)

// DefaultAPIURL is the backend used when nothing else is configured.
const DefaultAPIURL = "http://localhost:5000/api"

// Flag names shared by the CLI and the changed-set checks below.
const (
	FlagAPIURL          = "api-url"
	FlagRedisAddr       = "redis-addr"
	FlagRedisDB         = "redis-db"
	FlagUserAgent       = "user-agent"
	FlagPageSize        = "page-size"
	FlagHistoryPageSize = "history-page-size"
	FlagHTTPTimeout     = "http-timeout"
	FlagMaxRetries      = "max-retries"
	FlagCacheTTL        = "cache-ttl"
	FlagSessionFile     = "session-file"
	FlagLogLevel        = "log-level"
	FlagLogPretty       = "log-pretty"
	FlagLogFile         = "log-file"
	FlagMetricsAddr     = "metrics-addr"
	FlagFetchTimeout    = "fetch-timeout"
)

// Config holds the CLI settings.
type Config struct {
	APIURL    string
	UserAgent string

	// RedisAddr enables the response cache and shared rate-limit state.
	RedisAddr string
	RedisDB   int

	PageSize        int
	HistoryPageSize int

	HTTPTimeout  time.Duration
	MaxRetries   int
	CacheTTL     time.Duration
	FetchTimeout time.Duration

	SessionFile string

	LogLevel  string
	LogPretty bool
	LogFile   string

	// MetricsAddr serves /metrics while a command runs. Empty disables it.
	MetricsAddr string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		APIURL:          DefaultAPIURL,
		UserAgent:       "synapse-cli/1.0",
		PageSize:        10,
		HistoryPageSize: 50,
		HTTPTimeout:     15 * time.Second,
		MaxRetries:      3,
		CacheTTL:        5 * time.Minute,
		SessionFile:     defaultPath("session.json"),
		LogLevel:        string(logging.LevelInfo),
	}
}

// DefaultConfigPath returns ~/.synapse/config.toml, or "" without a home dir.
func DefaultConfigPath() string {
	return defaultPath("config.toml")
}

func defaultPath(name string) string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".synapse", name)
	}
	return ""
}

// Validate checks the configuration for errors and normalizes it.
func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		return fmt.Errorf("api-url is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api-url must be an http(s) URL: %q", c.APIURL)
	}

	if c.PageSize <= 0 {
		return fmt.Errorf("page-size must be positive")
	}
	if c.HistoryPageSize <= 0 {
		return fmt.Errorf("history-page-size must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http-timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries cannot be negative")
	}
	if c.CacheTTL < 0 || c.FetchTimeout < 0 {
		return fmt.Errorf("durations cannot be negative")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("redis-db cannot be negative")
	}

	level, ok := logging.ParseLevel(c.LogLevel)
	if !ok {
		return fmt.Errorf("unknown log-level %q", c.LogLevel)
	}
	c.LogLevel = string(level)

	if c.SessionFile == "" {
		c.SessionFile = defaultPath("session.json")
	}
	return nil
}

// setter applies values unless the flag was set explicitly.
type setter struct {
	changed map[string]bool
}

func (s setter) skip(flag string) bool {
	return s.changed[flag]
}

func (s setter) setString(flag, value string, dst *string) {
	if value == "" || s.skip(flag) {
		return
	}
	*dst = value
}

func (s setter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.skip(flag) {
		return
	}
	*dst = *value
}

func (s setter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.skip(flag) {
		return
	}
	*dst = *value
}

func (s setter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.skip(flag) {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

func (s setter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.skip(flag) {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

func (s setter) setBoolFromString(flag, value string, dst *bool) error {
	if value == "" || s.skip(flag) {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = b
	return nil
}

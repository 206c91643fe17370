package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// BindFlags registers the config flags on fs, writing into cfg. cfg's
// current values become the flag defaults.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.APIURL, FlagAPIURL, cfg.APIURL, "Synapse API base URL")
	fs.StringVar(&cfg.UserAgent, FlagUserAgent, cfg.UserAgent, "User-Agent sent with requests")
	fs.StringVar(&cfg.RedisAddr, FlagRedisAddr, cfg.RedisAddr, "Redis address for the response cache (empty disables)")
	fs.IntVar(&cfg.RedisDB, FlagRedisDB, cfg.RedisDB, "Redis database number")
	fs.IntVar(&cfg.PageSize, FlagPageSize, cfg.PageSize, "articles per feed page")
	fs.IntVar(&cfg.HistoryPageSize, FlagHistoryPageSize, cfg.HistoryPageSize, "articles per history page")
	fs.DurationVar(&cfg.HTTPTimeout, FlagHTTPTimeout, cfg.HTTPTimeout, "HTTP client timeout")
	fs.IntVar(&cfg.MaxRetries, FlagMaxRetries, cfg.MaxRetries, "attempts per request for retryable errors")
	fs.DurationVar(&cfg.CacheTTL, FlagCacheTTL, cfg.CacheTTL, "cache TTL when responses carry no expiry")
	fs.DurationVar(&cfg.FetchTimeout, FlagFetchTimeout, cfg.FetchTimeout, "bound on a single feed page fetch (0 disables)")
	fs.StringVar(&cfg.SessionFile, FlagSessionFile, cfg.SessionFile, "where session cookies are kept")
	fs.StringVar(&cfg.LogLevel, FlagLogLevel, cfg.LogLevel, "debug, info, warn, error or disabled")
	fs.BoolVar(&cfg.LogPretty, FlagLogPretty, cfg.LogPretty, "human-readable log output")
	fs.StringVar(&cfg.LogFile, FlagLogFile, cfg.LogFile, "append logs to this file")
	fs.StringVar(&cfg.MetricsAddr, FlagMetricsAddr, cfg.MetricsAddr, "serve Prometheus metrics on this address")
}

// Changed returns the names of the flags set on the command line.
func Changed(fs *pflag.FlagSet) map[string]bool {
	changed := map[string]bool{}
	fs.Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	return changed
}

// Load layers the config file at path and the environment under the flags
// already parsed into cfg, then validates. An empty path uses
// DefaultConfigPath.
func Load(cfg *Config, fs *pflag.FlagSet, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	changed := Changed(fs)

	if path != "" {
		f, err := LoadFile(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := ApplyFile(cfg, f, changed); err != nil {
			return err
		}
	}

	if err := ApplyEnv(cfg, os.Getenv, changed); err != nil {
		return err
	}
	return cfg.Validate()
}

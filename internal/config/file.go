package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// File mirrors Config with TOML-friendly types. Pointers distinguish
// unset from zero.
type File struct {
	APIURL          string `toml:"api_url"`
	UserAgent       string `toml:"user_agent"`
	RedisAddr       string `toml:"redis_addr"`
	RedisDB         *int   `toml:"redis_db"`
	PageSize        *int   `toml:"page_size"`
	HistoryPageSize *int   `toml:"history_page_size"`
	HTTPTimeout     string `toml:"http_timeout"`
	MaxRetries      *int   `toml:"max_retries"`
	CacheTTL        string `toml:"cache_ttl"`
	FetchTimeout    string `toml:"fetch_timeout"`
	SessionFile     string `toml:"session_file"`
	LogLevel        string `toml:"log_level"`
	LogPretty       *bool  `toml:"log_pretty"`
	LogFile         string `toml:"log_file"`
	MetricsAddr     string `toml:"metrics_addr"`
}

// LoadFile reads a TOML config file. A missing file yields an empty File
// and no error.
func LoadFile(path string) (File, error) {
	var f File
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, err
	}
	if err := toml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// ApplyFile copies the values set in f onto cfg, except for flags in changed.
func ApplyFile(cfg *Config, f File, changed map[string]bool) error {
	s := setter{changed: changed}

	s.setString(FlagAPIURL, f.APIURL, &cfg.APIURL)
	s.setString(FlagUserAgent, f.UserAgent, &cfg.UserAgent)
	s.setString(FlagRedisAddr, f.RedisAddr, &cfg.RedisAddr)
	s.setString(FlagSessionFile, f.SessionFile, &cfg.SessionFile)
	s.setString(FlagLogLevel, f.LogLevel, &cfg.LogLevel)
	s.setString(FlagLogFile, f.LogFile, &cfg.LogFile)
	s.setString(FlagMetricsAddr, f.MetricsAddr, &cfg.MetricsAddr)

	s.setInt(FlagRedisDB, f.RedisDB, &cfg.RedisDB)
	s.setInt(FlagPageSize, f.PageSize, &cfg.PageSize)
	s.setInt(FlagHistoryPageSize, f.HistoryPageSize, &cfg.HistoryPageSize)
	s.setInt(FlagMaxRetries, f.MaxRetries, &cfg.MaxRetries)
	s.setBool(FlagLogPretty, f.LogPretty, &cfg.LogPretty)

	if err := s.setDuration(FlagHTTPTimeout, f.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration(FlagCacheTTL, f.CacheTTL, &cfg.CacheTTL); err != nil {
		return err
	}
	return s.setDuration(FlagFetchTimeout, f.FetchTimeout, &cfg.FetchTimeout)
}

// Package logging configures zerolog for the Synapse client and its tools.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a minimum level name as accepted by --log-level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"

	// LevelDisabled silences logging, used while the TUI owns the terminal.
	LevelDisabled LogLevel = "disabled"
)

// Config selects level, format and destination.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console writer.
	Pretty bool

	// Output defaults to os.Stderr. Ignored when File is set.
	Output io.Writer

	// File appends logs to this path instead of Output. The terminal UI
	// owns the screen, so it logs here.
	File string
}

// DefaultConfig logs JSON at info to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup installs the global zerolog logger and level and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, NoColor: cfg.File != ""}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// SetupFile is Setup with output going to cfg.File. The returned closer
// releases the file; close it after the last log line.
func SetupFile(cfg Config) (zerolog.Logger, io.Closer, error) {
	if cfg.File == "" {
		return Setup(cfg), io.NopCloser(nil), nil
	}

	f, err := OpenFile(cfg.File)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	cfg.Output = f
	return Setup(cfg), f, nil
}

// OpenFile opens path for appending, creating parent directories.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// ParseLevel reports whether s names a known level.
func ParseLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "disabled", "off", "none":
		return LevelDisabled, true
	}
	return LevelInfo, false
}

func parseLevel(level LogLevel) zerolog.Level {
	l, _ := ParseLevel(string(level))
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelDisabled:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger derives a logger tagged with component from the global one.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Components log with these fields where they apply:
//
//	component    client, cache, ratelimit, feed, session, tui
//	endpoint     API path with numeric ids replaced by :id
//	status_code  HTTP status of the final attempt
//	error_class  client, auth, server, rate_limit, network
//	request_id   X-Request-ID sent with the request
//	page, epoch  feed controller position
//
// Stale feed pages and cache hits log at debug. Retries, throttling and
// malformed pages log at warn.

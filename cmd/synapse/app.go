package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/synapse-news/synapse-client/internal/config"
	"github.com/synapse-news/synapse-client/pkg/client"
	"github.com/synapse-news/synapse-client/pkg/logging"
	"github.com/synapse-news/synapse-client/pkg/metrics"
	"github.com/synapse-news/synapse-client/pkg/session"
)

// tuiAnnotation marks commands that own the terminal.
const tuiAnnotation = "tui"

var errNotSignedIn = errors.New("not signed in, run `synapse login` first")

// app is the state shared by all commands of one invocation.
type app struct {
	cfg     config.Config
	cfgPath string

	logger  zerolog.Logger
	client  *client.Client
	session *session.Session

	in      *bufio.Reader
	closers []func() error
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.Load(&a.cfg, cmd.Flags(), a.cfgPath); err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:  logging.LogLevel(a.cfg.LogLevel),
		Pretty: a.cfg.LogPretty,
		Output: cmd.ErrOrStderr(),
		File:   a.cfg.LogFile,
	}
	if a.cfg.LogFile == "" && ownsTerminal(cmd) {
		logCfg.Level = logging.LevelDisabled
	}
	logger, logCloser, err := logging.SetupFile(logCfg)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, logCloser.Close)
	a.logger = logger.With().Str("component", "cli").Logger()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	clientCfg := client.DefaultConfig(a.cfg.APIURL)
	clientCfg.UserAgent = a.cfg.UserAgent
	clientCfg.HTTPTimeout = a.cfg.HTTPTimeout
	clientCfg.Retry.MaxAttempts = max(a.cfg.MaxRetries, 1)
	clientCfg.CacheTTL = a.cfg.CacheTTL
	clientCfg.Redis = a.connectRedis(ctx)

	c, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	a.client = c
	a.closers = append(a.closers, c.Close)

	a.session = session.New(c, session.Config{
		Jar:   c,
		Store: session.NewStore(a.cfg.SessionFile),
	})
	if err := a.session.Restore(); err != nil {
		a.logger.Warn().Err(err).Msg("Ignoring unreadable session file")
	}

	if a.cfg.MetricsAddr != "" {
		mctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := metrics.Serve(mctx, a.cfg.MetricsAddr); err != nil {
				a.logger.Warn().Err(err).Msg("Metrics server failed")
			}
		}()
		a.closers = append(a.closers, func() error {
			cancel()
			<-done
			return nil
		})
	}

	a.logger.Debug().
		Str("api_url", a.cfg.APIURL).
		Bool("cache", clientCfg.Redis != nil).
		Str("session_file", a.cfg.SessionFile).
		Msg("Configured")
	return nil
}

// connectRedis returns a live client, or nil when Redis is not configured
// or unreachable.
func (a *app) connectRedis(ctx context.Context) *redis.Client {
	if a.cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr, DB: a.cfg.RedisDB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		a.logger.Warn().Err(err).Str("addr", a.cfg.RedisAddr).Msg("Redis unavailable, caching disabled")
		rdb.Close()
		return nil
	}
	a.closers = append(a.closers, rdb.Close)
	return rdb
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// prompt reads one line from the command's input.
func (a *app) prompt(cmd *cobra.Command, label string) (string, error) {
	if a.in == nil {
		a.in = bufio.NewReader(cmd.InOrStdin())
	}
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(line), nil
}

// explain turns auth failures into a hint to sign in.
func explain(err error) error {
	if client.IsAuthError(err) {
		return fmt.Errorf("%w (%v)", errNotSignedIn, err)
	}
	return err
}

func ownsTerminal(cmd *cobra.Command) bool {
	if cmd.Annotations[tuiAnnotation] != "true" {
		return false
	}
	plain, err := cmd.Flags().GetBool("plain")
	return err != nil || !plain
}

package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/synapse-news/synapse-client/pkg/client"
)

var (
	authChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synapse_session_auth_checks_total",
		Help: "Authentication checks by outcome",
	}, []string{"result"})

	authenticatedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "synapse_session_authenticated",
		Help: "1 while a user is signed in",
	})
)

// ErrNotAuthenticated is returned by operations that need a signed-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

// API is the subset of the Synapse client a Session uses.
type API interface {
	Profile(ctx context.Context) (*client.User, error)
	Login(ctx context.Context, email, password string) (*client.User, error)
	Logout(ctx context.Context) error
}

// CookieJar holds the cookies that carry the session.
type CookieJar interface {
	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
	ClearCookies()
}

// State is a snapshot of the session.
type State struct {
	User            *client.User
	IsAuthenticated bool
	Loading         bool
}

// Config holds session configuration.
type Config struct {
	// Jar is persisted to Store after login and logout. Optional.
	Jar CookieJar

	// Store persists the cookies in Jar. Optional.
	Store *Store

	// Debounce delays Watch reloads so bursts of file events collapse
	Debounce time.Duration
}

// Session is the process-wide authentication state.
type Session struct {
	api    API
	config Config
	logger zerolog.Logger
	group  singleflight.Group

	mu            sync.RWMutex
	user          *client.User
	authenticated bool
	loading       bool
	subs          map[int]func(State)
	nextSub       int
}

// New creates a session in the loading state. Call CheckAuth to resolve it.
func New(api API, cfg Config) *Session {
	if api == nil {
		panic("session api cannot be nil")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 100 * time.Millisecond
	}

	return &Session{
		api:     api,
		config:  cfg,
		logger:  log.With().Str("component", "session").Logger(),
		loading: true,
		subs:    make(map[int]func(State)),
	}
}

// Restore loads persisted cookies into the jar. It does not contact the
// server; call CheckAuth afterwards.
func (s *Session) Restore() error {
	if s.config.Store == nil || s.config.Jar == nil {
		return nil
	}
	cookies, err := s.config.Store.Load()
	if err != nil {
		return err
	}
	s.config.Jar.ClearCookies()
	if len(cookies) > 0 {
		s.config.Jar.SetCookies(cookies)
	}
	s.logger.Debug().Int("cookies", len(cookies)).Msg("Session cookies restored")
	return nil
}

// CheckAuth asks the server who is signed in. Success makes the session
// authenticated; any failure makes it anonymous. Concurrent calls share one
// request, run under the first caller's ctx. It reports whether a user is
// signed in.
func (s *Session) CheckAuth(ctx context.Context) bool {
	v, _, _ := s.group.Do("check-auth", func() (interface{}, error) {
		s.setLoading(true)

		user, err := s.api.Profile(ctx)
		if err != nil || user == nil {
			if client.IsAuthError(err) {
				s.logger.Debug().Msg("No valid session")
			} else if err != nil {
				s.logger.Warn().Err(err).Msg("Auth check failed")
			}
			authChecksTotal.WithLabelValues("anonymous").Inc()
			s.update(func() {
				s.user = nil
				s.authenticated = false
				s.loading = false
			})
			return false, nil
		}

		authChecksTotal.WithLabelValues("authenticated").Inc()
		s.update(func() {
			s.user = user
			s.authenticated = true
			s.loading = false
		})
		return true, nil
	})
	return v.(bool)
}

// Login signs in and persists the new session cookies. On failure the
// state is left unchanged.
func (s *Session) Login(ctx context.Context, email, password string) (*client.User, error) {
	user, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if user == nil || (user.ID == 0 && user.Email == "") {
		// Login responses without a profile body fall back to a fetch.
		if user, err = s.api.Profile(ctx); err != nil {
			return nil, err
		}
	}

	s.update(func() {
		s.user = user
		s.authenticated = true
		s.loading = false
	})
	s.persist()

	s.logger.Info().Int64("user_id", user.ID).Msg("Signed in")
	u := *user
	return &u, nil
}

// Logout signs out. The local state and cookies are always cleared, even
// when the server call fails; that failure is returned.
func (s *Session) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Logout API failed")
	}

	s.update(func() {
		s.user = nil
		s.authenticated = false
		s.loading = false
	})

	if s.config.Jar != nil {
		s.config.Jar.ClearCookies()
	}
	if s.config.Store != nil {
		if clearErr := s.config.Store.Clear(); clearErr != nil {
			s.logger.Warn().Err(clearErr).Msg("Failed to clear session file")
		}
	}

	s.logger.Info().Msg("Signed out")
	return err
}

// RefreshProfile reloads the profile of the signed-in user. It does nothing
// while anonymous. A failure signs the session out locally.
func (s *Session) RefreshProfile(ctx context.Context) error {
	if !s.IsAuthenticated() {
		return nil
	}

	user, err := s.api.Profile(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Profile refresh failed")
		s.update(func() {
			s.user = nil
			s.authenticated = false
		})
		return err
	}
	if user != nil {
		s.update(func() { s.user = user })
	}
	return nil
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *client.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a user is signed in.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Loading reports whether an auth check is in progress.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

// Subscribe registers fn to be called with the new state after every
// change. The returned func unregisters it.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) stateLocked() State {
	st := State{IsAuthenticated: s.authenticated, Loading: s.loading}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

func (s *Session) setLoading(loading bool) {
	s.update(func() { s.loading = loading })
}

// update applies fn under the lock and notifies subscribers outside it.
func (s *Session) update(fn func()) {
	s.mu.Lock()
	fn()
	st := s.stateLocked()
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	if st.IsAuthenticated {
		authenticatedGauge.Set(1)
	} else {
		authenticatedGauge.Set(0)
	}

	for _, sub := range subs {
		sub(st)
	}
}

func (s *Session) persist() {
	if s.config.Store == nil || s.config.Jar == nil {
		return
	}
	if err := s.config.Store.Save(s.config.Jar.Cookies()); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist session")
	}
}

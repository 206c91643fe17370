package session

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/synapse-news/synapse-client/pkg/client"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeJar is an in-memory CookieJar.
type fakeJar struct {
	mu      sync.Mutex
	cookies map[string]string
}

func newFakeJar() *fakeJar {
	return &fakeJar{cookies: map[string]string{}}
}

func (j *fakeJar) Cookies() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*http.Cookie, 0, len(j.cookies))
	for k, v := range j.cookies {
		out = append(out, &http.Cookie{Name: k, Value: v})
	}
	return out
}

func (j *fakeJar) SetCookies(cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		j.cookies[c.Name] = c.Value
	}
}

func (j *fakeJar) ClearCookies() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies = map[string]string{}
}

func (j *fakeJar) token() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cookies[client.AccessTokenCookie]
}

// fakeAPI authenticates whoever holds the "valid" access token in jar.
type fakeAPI struct {
	jar *fakeJar

	profileCalls int32
	profileGate  chan struct{}
	profileErr   error
	loginErr     error
	logoutErr    error
}

var ana = &client.User{ID: 7, FullName: "Ana Costa", Email: "ana.costa@example.com"}

func (f *fakeAPI) Profile(ctx context.Context) (*client.User, error) {
	atomic.AddInt32(&f.profileCalls, 1)
	if f.profileGate != nil {
		<-f.profileGate
	}
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.jar != nil && f.jar.token() == "valid" {
		u := *ana
		return &u, nil
	}
	return nil, &client.APIError{StatusCode: 401, ErrorClass: client.ErrorClassAuth, Message: "Missing cookie"}
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*client.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.jar != nil {
		f.jar.SetCookies([]*http.Cookie{{Name: client.AccessTokenCookie, Value: "valid"}})
	}
	u := *ana
	return &u, nil
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	return f.logoutErr
}

func (f *fakeAPI) calls() int {
	return int(atomic.LoadInt32(&f.profileCalls))
}

func TestNew_StartsLoading(t *testing.T) {
	s := New(&fakeAPI{}, Config{})
	st := s.State()
	assert.True(t, st.Loading)
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.User)

	assert.Panics(t, func() { New(nil, Config{}) })
}

func TestCheckAuth(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		apiErr   error
		wantAuth bool
	}{
		{name: "valid session", token: "valid", wantAuth: true},
		{name: "no session", token: "", wantAuth: false},
		{name: "server failure", token: "valid", apiErr: errors.New("connection refused"), wantAuth: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jar := newFakeJar()
			jar.SetCookies([]*http.Cookie{{Name: client.AccessTokenCookie, Value: tt.token}})
			s := New(&fakeAPI{jar: jar, profileErr: tt.apiErr}, Config{Jar: jar})

			var states []State
			s.Subscribe(func(st State) { states = append(states, st) })

			got := s.CheckAuth(context.Background())
			assert.Equal(t, tt.wantAuth, got)
			assert.Equal(t, tt.wantAuth, s.IsAuthenticated())
			assert.False(t, s.Loading())
			if tt.wantAuth {
				require.NotNil(t, s.User())
				assert.Equal(t, "Ana Costa", s.User().FullName)
			} else {
				assert.Nil(t, s.User())
			}

			require.Len(t, states, 2)
			assert.True(t, states[0].Loading)
			assert.False(t, states[1].Loading)
		})
	}
}

func TestCheckAuth_ConcurrentCallsShareRequest(t *testing.T) {
	jar := newFakeJar()
	jar.SetCookies([]*http.Cookie{{Name: client.AccessTokenCookie, Value: "valid"}})
	api := &fakeAPI{jar: jar, profileGate: make(chan struct{})}
	s := New(api, Config{})

	var wg sync.WaitGroup
	results := make([]bool, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.CheckAuth(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return api.calls() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(api.profileGate)
	wg.Wait()

	assert.Equal(t, 1, api.calls())
	for i, r := range results {
		assert.True(t, r, "caller %d", i)
	}
}

func TestLogin(t *testing.T) {
	dir := t.TempDir()
	jar := newFakeJar()
	store := NewStore(filepath.Join(dir, "session.json"))
	s := New(&fakeAPI{jar: jar}, Config{Jar: jar, Store: store})

	user, err := s.Login(context.Background(), "ana.costa@example.com", "Senha123")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.True(t, s.IsAuthenticated())
	assert.False(t, s.Loading())

	cookies, err := store.Load()
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, client.AccessTokenCookie, cookies[0].Name)
	assert.Equal(t, "valid", cookies[0].Value)
}

func TestLogin_FailureLeavesState(t *testing.T) {
	loginErr := &client.APIError{StatusCode: 401, ErrorClass: client.ErrorClassAuth, Message: "Invalid credentials"}
	s := New(&fakeAPI{loginErr: loginErr}, Config{})

	_, err := s.Login(context.Background(), "x@example.com", "bad")
	assert.ErrorIs(t, err, loginErr)
	assert.False(t, s.IsAuthenticated())
	assert.True(t, s.Loading(), "a failed login does not resolve the initial check")
}

func TestLogout_AlwaysClears(t *testing.T) {
	for _, apiErr := range []error{nil, errors.New("server down")} {
		name := "api ok"
		if apiErr != nil {
			name = "api fails"
		}
		t.Run(name, func(t *testing.T) {
			jar := newFakeJar()
			store := NewStore(filepath.Join(t.TempDir(), "session.json"))
			api := &fakeAPI{jar: jar, logoutErr: apiErr}
			s := New(api, Config{Jar: jar, Store: store})

			_, err := s.Login(context.Background(), "ana.costa@example.com", "Senha123")
			require.NoError(t, err)

			err = s.Logout(context.Background())
			if apiErr != nil {
				assert.ErrorIs(t, err, apiErr)
			} else {
				assert.NoError(t, err)
			}

			assert.False(t, s.IsAuthenticated())
			assert.Nil(t, s.User())
			assert.Empty(t, jar.Cookies())
			_, statErr := os.Stat(store.Path())
			assert.True(t, os.IsNotExist(statErr), "session file should be removed")
		})
	}
}

func TestRefreshProfile(t *testing.T) {
	t.Run("anonymous is a no-op", func(t *testing.T) {
		api := &fakeAPI{}
		s := New(api, Config{})
		require.NoError(t, s.RefreshProfile(context.Background()))
		assert.Zero(t, api.calls())
	})

	t.Run("success updates the user", func(t *testing.T) {
		jar := newFakeJar()
		api := &fakeAPI{jar: jar}
		s := New(api, Config{Jar: jar})
		_, err := s.Login(context.Background(), "a", "b")
		require.NoError(t, err)

		require.NoError(t, s.RefreshProfile(context.Background()))
		assert.Equal(t, 1, api.calls())
		assert.True(t, s.IsAuthenticated())
	})

	t.Run("failure signs out locally", func(t *testing.T) {
		jar := newFakeJar()
		api := &fakeAPI{jar: jar}
		s := New(api, Config{Jar: jar})
		_, err := s.Login(context.Background(), "a", "b")
		require.NoError(t, err)

		jar.ClearCookies()
		assert.Error(t, s.RefreshProfile(context.Background()))
		assert.False(t, s.IsAuthenticated())
		assert.Nil(t, s.User())
	})
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	s := New(&fakeAPI{}, Config{})

	var count int
	unsubscribe := s.Subscribe(func(State) { count++ })
	s.CheckAuth(context.Background())
	assert.Equal(t, 2, count)

	unsubscribe()
	s.CheckAuth(context.Background())
	assert.Equal(t, 2, count)
}

func TestUser_ReturnsCopy(t *testing.T) {
	jar := newFakeJar()
	s := New(&fakeAPI{jar: jar}, Config{Jar: jar})
	_, err := s.Login(context.Background(), "a", "b")
	require.NoError(t, err)

	u := s.User()
	u.FullName = "changed"
	assert.Equal(t, "Ana Costa", s.User().FullName)
}

func TestRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, NewStore(path).Save([]*http.Cookie{{Name: client.AccessTokenCookie, Value: "valid"}}))

	jar := newFakeJar()
	jar.SetCookies([]*http.Cookie{{Name: "stale", Value: "x"}})
	s := New(&fakeAPI{jar: jar}, Config{Jar: jar, Store: NewStore(path)})

	require.NoError(t, s.Restore())
	assert.Equal(t, "valid", jar.token())
	assert.Len(t, jar.Cookies(), 1)
	assert.True(t, s.CheckAuth(context.Background()))
}

package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/synapse-news/synapse-client/pkg/feed"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// recorder answers every request with a canned body per path and remembers
// what it was asked.
type recorder struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]string
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.requests = append(r.requests, recordedRequest{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.RawQuery,
		Body:   string(body),
	})
	resp, ok := r.responses[req.URL.Path]
	r.mu.Unlock()

	if !ok {
		resp = `{"success":true,"message":"ok","data":null,"error":null}`
	}
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, resp)
}

func (r *recorder) last() recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[len(r.requests)-1]
}

func TestNewsEndpoints(t *testing.T) {
	rec := &recorder{responses: map[string]string{
		"/news/3": `{"success":true,"data":{"id":3,"title":"Three","image_url":"http://img/3.png"}}`,
	}}
	c := newTestClient(t, rec)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want recordedRequest
	}{
		{
			name: "user news",
			call: func() error { _, err := c.UserNews(ctx, 2, 5); return err },
			want: recordedRequest{Method: "GET", Path: "/news/", Query: "page=2&per_page=5"},
		},
		{
			name: "for you",
			call: func() error { _, err := c.ForYouNews(ctx, 1, 10); return err },
			want: recordedRequest{Method: "GET", Path: "/news/for-you", Query: "page=1&per_page=10"},
		},
		{
			name: "by topic",
			call: func() error { _, err := c.NewsByTopic(ctx, 7, 3, 10); return err },
			want: recordedRequest{Method: "GET", Path: "/news/topic/7", Query: "page=3&per_page=10"},
		},
		{
			name: "history default page size",
			call: func() error { _, err := c.History(ctx, 1, 0); return err },
			want: recordedRequest{Method: "GET", Path: "/news/history", Query: "page=1&per_page=50"},
		},
		{
			name: "favorite",
			call: func() error { return c.FavoriteNews(ctx, 3) },
			want: recordedRequest{Method: "POST", Path: "/news/3/favorite"},
		},
		{
			name: "unfavorite",
			call: func() error { return c.UnfavoriteNews(ctx, 3) },
			want: recordedRequest{Method: "PUT", Path: "/news/3/favorite"},
		},
		{
			name: "saved",
			call: func() error { _, err := c.SavedNews(ctx); return err },
			want: recordedRequest{Method: "GET", Path: "/news/saved"},
		},
		{
			name: "add to history",
			call: func() error { return c.AddNewsToHistory(ctx, 3) },
			want: recordedRequest{Method: "POST", Path: "/news/3/history"},
		},
		{
			name: "standard topics",
			call: func() error { _, err := c.StandardTopics(ctx); return err },
			want: recordedRequest{Method: "GET", Path: "/topics/standard"},
		},
		{
			name: "preferred topics",
			call: func() error { _, err := c.PreferredTopics(ctx); return err },
			want: recordedRequest{Method: "GET", Path: "/topics/custom"},
		},
		{
			name: "add preferred topic collapses whitespace",
			call: func() error { _, err := c.AddPreferredTopic(ctx, "  machine   learning "); return err },
			want: recordedRequest{Method: "POST", Path: "/topics/custom", Body: `{"name":"machine learning"}`},
		},
		{
			name: "remove preferred topic",
			call: func() error { return c.RemovePreferredTopic(ctx, 4) },
			want: recordedRequest{Method: "DELETE", Path: "/topics/custom/4"},
		},
		{
			name: "all sources",
			call: func() error { _, err := c.AllSources(ctx); return err },
			want: recordedRequest{Method: "GET", Path: "/news_sources/list_all"},
		},
		{
			name: "attached sources",
			call: func() error { _, err := c.AttachedSources(ctx); return err },
			want: recordedRequest{Method: "GET", Path: "/news_sources/list_all_attached_sources"},
		},
		{
			name: "attach source",
			call: func() error { return c.AttachSource(ctx, 9) },
			want: recordedRequest{Method: "POST", Path: "/news_sources/attach", Body: `{"source_id":9}`},
		},
		{
			name: "detach source",
			call: func() error { return c.DetachSource(ctx, 9) },
			want: recordedRequest{Method: "DELETE", Path: "/news_sources/detach/9"},
		},
		{
			name: "register",
			call: func() error {
				return c.Register(ctx, Registration{FullName: "Ana", Email: "ana@example.com", Password: "pw"})
			},
			want: recordedRequest{Method: "POST", Path: "/users/register", Body: `{"full_name":"Ana","email":"ana@example.com","password":"pw"}`},
		},
		{
			name: "logout",
			call: func() error { return c.Logout(ctx) },
			want: recordedRequest{Method: "POST", Path: "/users/logout"},
		},
		{
			name: "profile",
			call: func() error { _, err := c.Profile(ctx); return err },
			want: recordedRequest{Method: "GET", Path: "/users/profile"},
		},
		{
			name: "update profile",
			call: func() error { return c.UpdateProfile(ctx, ProfileUpdate{FullName: "Ana C"}) },
			want: recordedRequest{Method: "PUT", Path: "/users/profile/update", Body: `{"full_name":"Ana C"}`},
		},
		{
			name: "change password",
			call: func() error { return c.ChangePassword(ctx, "n3w") },
			want: recordedRequest{Method: "PUT", Path: "/users/profile/change_password", Body: `{"new_password":"n3w"}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if got := rec.last(); got != tt.want {
				t.Errorf("request = %+v, want %+v", got, tt.want)
			}
		})
	}

	n, err := c.NewsByID(ctx, 3)
	if err != nil {
		t.Fatalf("NewsByID failed: %v", err)
	}
	if n.Title != "Three" || n.ImageURL != "http://img/3.png" {
		t.Errorf("news = %+v", n)
	}
}

func TestEndpoints_LocalValidation(t *testing.T) {
	rec := &recorder{}
	c := newTestClient(t, rec)
	ctx := context.Background()

	if _, err := c.AddPreferredTopic(ctx, "   "); err == nil {
		t.Error("expected error for blank topic name")
	}
	if err := c.ChangePassword(ctx, ""); err == nil {
		t.Error("expected error for empty password")
	}
	if err := c.Register(ctx, Registration{FullName: "x"}); err == nil {
		t.Error("expected error for incomplete registration")
	}
	if len(rec.requests) != 0 {
		t.Errorf("invalid input reached the server: %+v", rec.requests)
	}
}

func TestNewsPage_MalformedIsEmpty(t *testing.T) {
	rec := &recorder{responses: map[string]string{
		"/news/for-you": `{"success":true,"data":{"results":[1,2,3]}}`,
	}}
	c := newTestClient(t, rec)

	page, err := c.ForYouNews(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("ForYouNews failed: %v", err)
	}
	if len(page.Items) != 0 || page.Pagination != nil {
		t.Errorf("page = %+v, want empty", page)
	}
}

func TestFeedFunc_DrivesController(t *testing.T) {
	pages := map[string]string{
		"1": `{"success":true,"data":{"news":[{"id":1,"title":"A"},{"id":2,"title":"B"}]}}`,
		"2": `{"success":true,"data":{"news":[{"id":3,"title":"C"}]}}`,
	}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/news/topic/5" || r.URL.Query().Get("per_page") != "2" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, pages[r.URL.Query().Get("page")])
	}))

	cfg := feed.DefaultConfig()
	cfg.PageSize = 2
	ctrl := feed.New(c.TopicFeedFunc(5), cfg)
	ctx := context.Background()

	ctrl.Activate(ctx)
	if e := ctrl.Err(); e != "" {
		t.Fatalf("first page: %s", e)
	}
	if n := len(ctrl.Items()); n != 2 || !ctrl.HasMore() {
		t.Fatalf("after first page: items = %d, hasMore = %v", n, ctrl.HasMore())
	}

	ctrl.LoadMore(ctx)
	if e := ctrl.Err(); e != "" {
		t.Fatalf("second page: %s", e)
	}
	items := ctrl.Items()
	if len(items) != 3 || ctrl.HasMore() {
		t.Fatalf("after second page: items = %d, hasMore = %v", len(items), ctrl.HasMore())
	}
	if items[2].Title != "C" {
		t.Errorf("third item = %q, want C", items[2].Title)
	}
}

// TestPreferenceChangesRefreshFeeds checks that a topic or source change
// drops cached feed pages. The server sends no validators, so without
// invalidation the old feeds would be served until they expire.
func TestPreferenceChangesRefreshFeeds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ctx context.Context, c *Client) error
	}{
		{"add topic", func(ctx context.Context, c *Client) error {
			_, err := c.AddPreferredTopic(ctx, "golang")
			return err
		}},
		{"remove topic", func(ctx context.Context, c *Client) error { return c.RemovePreferredTopic(ctx, 5) }},
		{"attach source", func(ctx context.Context, c *Client) error { return c.AttachSource(ctx, 9) }},
		{"detach source", func(ctx context.Context, c *Client) error { return c.DetachSource(ctx, 9) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rdb := setupTestRedis(t)

			var version, savedCalls atomic.Int64
			version.Store(100)
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if r.Method != http.MethodGet {
					version.Add(1)
					io.WriteString(w, `{"success":true,"data":{"id":5,"name":"golang"}}`)
					return
				}
				if r.URL.Path == "/news/saved" {
					savedCalls.Add(1)
				}
				fmt.Fprintf(w, `{"success":true,"data":{"news":[{"id":%d,"title":"v"}]}}`, version.Load())
			}), func(cfg *Config) { cfg.Redis = rdb })
			ctx := context.Background()

			feeds := map[string]func() (feed.Page[News], error){
				"main":    func() (feed.Page[News], error) { return c.UserNews(ctx, 1, 10) },
				"for you": func() (feed.Page[News], error) { return c.ForYouNews(ctx, 1, 10) },
				"topic":   func() (feed.Page[News], error) { return c.NewsByTopic(ctx, 3, 1, 10) },
			}
			firstID := func(name string) int64 {
				t.Helper()
				page, err := feeds[name]()
				if err != nil {
					t.Fatalf("%s feed: %v", name, err)
				}
				if len(page.Items) != 1 {
					t.Fatalf("%s feed items = %+v", name, page.Items)
				}
				return page.Items[0].ID
			}

			for name := range feeds {
				if id := firstID(name); id != 100 {
					t.Fatalf("%s feed before change = %d, want 100", name, id)
				}
			}
			if _, err := c.SavedNews(ctx); err != nil {
				t.Fatalf("SavedNews failed: %v", err)
			}

			if err := tt.mutate(ctx, c); err != nil {
				t.Fatalf("mutation failed: %v", err)
			}

			for name := range feeds {
				if id := firstID(name); id != 101 {
					t.Errorf("%s feed after change = %d, want 101", name, id)
				}
			}
			if _, err := c.SavedNews(ctx); err != nil {
				t.Fatalf("SavedNews failed: %v", err)
			}
			if n := savedCalls.Load(); n != 1 {
				t.Errorf("saved list fetched %d times, want 1 (still cached)", n)
			}
		})
	}
}

package cache

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis connects to a local Redis on DB 15 and skips when absent.
// tests/integration covers the same paths against a container.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		t.Skipf("Redis not available for testing: %v", err)
	}
	require.NoError(t, rdb.FlushDB(ctx).Err())

	t.Cleanup(func() {
		rdb.FlushDB(context.Background())
		rdb.Close()
	})
	return rdb
}

func freshEntry(body string, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Body:        []byte(body),
		Status:      200,
		ContentType: "application/json",
		ETag:        `"` + body + `"`,
		StoredAt:    now,
		FreshUntil:  now.Add(ttl),
	}
}

func TestNewManager(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer rdb.Close()

	assert.Equal(t, 30*time.Second, NewManager(rdb, 30*time.Second).DefaultTTL())
	assert.Equal(t, DefaultTTL, NewManager(rdb, 0).DefaultTTL())
	assert.Panics(t, func() { NewManager(nil, time.Minute) })
}

func TestManager_PutAndGet(t *testing.T) {
	m := NewManager(setupTestRedis(t), time.Minute)
	ctx := context.Background()
	key := Key{Path: "/api/news/topic/1", Query: url.Values{"page": {"1"}}, Scope: "u1"}

	_, err := m.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, m.Put(ctx, key, freshEntry("page-1", time.Minute)))

	got, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "page-1", string(got.Body))
	assert.Equal(t, `"page-1"`, got.ETag)

	// Another scope does not see it.
	_, err = m.Get(ctx, Key{Path: key.Path, Query: key.Query, Scope: "u2"})
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestManager_PutSetsRedisTTL(t *testing.T) {
	rdb := setupTestRedis(t)
	m := NewManager(rdb, time.Minute)
	ctx := context.Background()
	key := Key{Path: "/api/topics/standard"}

	require.NoError(t, m.Put(ctx, key, freshEntry("topics", 30*time.Second)))

	ttl, err := rdb.PTTL(ctx, key.String()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 25*time.Second)
	assert.LessOrEqual(t, ttl, 30*time.Second)
}

func TestManager_PutExpiredIsDropped(t *testing.T) {
	m := NewManager(setupTestRedis(t), time.Minute)
	ctx := context.Background()
	key := Key{Path: "/api/news/saved"}

	require.NoError(t, m.Put(ctx, key, freshEntry("old", -time.Second)))
	_, err := m.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.Error(t, m.Put(ctx, key, nil))
}

func TestManager_GetInvalidEntry(t *testing.T) {
	rdb := setupTestRedis(t)
	m := NewManager(rdb, time.Minute)
	ctx := context.Background()
	key := Key{Path: "/api/news/1"}

	require.NoError(t, rdb.Set(ctx, key.String(), "not json", time.Minute).Err())

	_, err := m.Get(ctx, key)
	assert.ErrorIs(t, err, ErrInvalidEntry)

	n, err := rdb.Exists(ctx, key.String()).Result()
	require.NoError(t, err)
	assert.Zero(t, n, "corrupt entry removed")
}

func TestManager_Touch(t *testing.T) {
	m := NewManager(setupTestRedis(t), time.Minute)
	ctx := context.Background()
	key := Key{Path: "/api/news/history", Query: url.Values{"page": {"1"}}}

	entry := freshEntry("history", time.Second)
	require.NoError(t, m.Put(ctx, key, entry))

	until := time.Now().Add(10 * time.Minute)
	require.NoError(t, m.Touch(ctx, key, entry, until))
	assert.WithinDuration(t, time.Now().Add(time.Second), entry.FreshUntil, time.Second, "caller's entry untouched")

	got, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.WithinDuration(t, until, got.FreshUntil, time.Millisecond)
	assert.Equal(t, "history", string(got.Body))
}

func TestManager_Delete(t *testing.T) {
	m := NewManager(setupTestRedis(t), time.Minute)
	ctx := context.Background()
	key := Key{Path: "/api/news_sources/list_all"}

	require.NoError(t, m.Put(ctx, key, freshEntry("sources", time.Minute)))
	require.NoError(t, m.Delete(ctx, key))

	_, err := m.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, m.Delete(ctx, key), "deleting a missing key is fine")
}

func TestManager_InvalidatePath(t *testing.T) {
	m := NewManager(setupTestRedis(t), time.Minute)
	ctx := context.Background()

	saved := []Key{
		{Path: "/api/news/saved", Scope: "u1"},
		{Path: "/api/news/saved", Scope: "u2"},
		{Path: "/api/news/saved", Query: url.Values{"page": {"2"}}, Scope: "u1"},
	}
	other := Key{Path: "/api/news/history", Scope: "u1"}
	for _, k := range append(saved, other) {
		require.NoError(t, m.Put(ctx, k, freshEntry(k.String(), time.Minute)))
	}

	removed, err := m.InvalidatePath(ctx, "/api/news/saved")
	require.NoError(t, err)
	assert.Equal(t, len(saved), removed)

	for _, k := range saved {
		_, err := m.Get(ctx, k)
		assert.ErrorIs(t, err, ErrCacheMiss, k.String())
	}
	_, err = m.Get(ctx, other)
	assert.NoError(t, err)

	removed, err = m.InvalidatePath(ctx, "/api/news/saved")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestManager_InvalidateExactPath(t *testing.T) {
	m := NewManager(setupTestRedis(t), time.Minute)
	ctx := context.Background()

	mainFeed := []Key{
		{Path: "/api/news/"},
		{Path: "/api/news/", Scope: "u1"},
		{Path: "/api/news/", Query: url.Values{"page": {"1"}, "per_page": {"10"}}, Scope: "u1"},
	}
	below := []Key{
		{Path: "/api/news/saved", Scope: "u1"},
		{Path: "/api/news/for-you", Query: url.Values{"page": {"1"}}, Scope: "u1"},
	}
	for _, k := range append(append([]Key{}, mainFeed...), below...) {
		require.NoError(t, m.Put(ctx, k, freshEntry(k.String(), time.Minute)))
	}

	removed, err := m.InvalidateExactPath(ctx, "/api/news/")
	require.NoError(t, err)
	assert.Equal(t, len(mainFeed), removed)

	for _, k := range mainFeed {
		_, err := m.Get(ctx, k)
		assert.ErrorIs(t, err, ErrCacheMiss, k.String())
	}
	for _, k := range below {
		_, err := m.Get(ctx, k)
		assert.NoError(t, err, k.String())
	}
}

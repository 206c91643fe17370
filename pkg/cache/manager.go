package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned when no live entry exists for a key
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry is returned when a stored entry cannot be decoded
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// scanBatch is the SCAN count hint used by InvalidatePath.
const scanBatch = 100

// Manager stores entries in Redis. Redis expires keys together with their
// entries, so no sweeping is needed.
type Manager struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewManager returns a manager on rdb. defaultTTL applies to responses
// without freshness headers.
func NewManager(rdb *redis.Client, defaultTTL time.Duration) *Manager {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Manager{redis: rdb, defaultTTL: defaultTTL}
}

// DefaultTTL returns the fallback lifetime for new entries.
func (m *Manager) DefaultTTL() time.Duration {
	return m.defaultTTL
}

// Get returns the live entry for key or ErrCacheMiss.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		m.redis.Del(ctx, key.String())
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	// Redis may keep a key for up to a second past its PX deadline.
	if entry.Expired() {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("redis").Inc()
	return &entry, nil
}

// Put stores entry under key for the entry's remaining lifetime. Expired
// entries are dropped silently.
func (m *Manager) Put(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := m.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheBytesWritten.Add(float64(len(data)))
	return nil
}

// Touch extends a stored entry after a 304 revalidation.
func (m *Manager) Touch(ctx context.Context, key Key, entry *Entry, freshUntil time.Time) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	touched := *entry
	touched.FreshUntil = freshUntil
	return m.Put(ctx, key, &touched)
}

// Delete removes the entry for key.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// InvalidatePath removes every entry under path, for all queries and
// scopes, and returns how many were removed.
func (m *Manager) InvalidatePath(ctx context.Context, path string) (int, error) {
	return m.unlinkMatching(ctx, pathPattern(path))
}

// InvalidateExactPath removes the entries for path itself, for all queries
// and scopes, leaving longer paths below it alone.
func (m *Manager) InvalidateExactPath(ctx context.Context, path string) (int, error) {
	removed, err := m.unlinkMatching(ctx, exactPathPattern(path))
	if err != nil {
		return removed, err
	}
	n, err := m.redis.Unlink(ctx, Key{Path: path}.String()).Result()
	if err != nil {
		CacheErrors.WithLabelValues("invalidate").Inc()
		return removed, fmt.Errorf("redis unlink: %w", err)
	}
	return removed + int(n), nil
}

func (m *Manager) unlinkMatching(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := m.redis.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			CacheErrors.WithLabelValues("invalidate").Inc()
			return removed, fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			n, err := m.redis.Unlink(ctx, keys...).Result()
			if err != nil {
				CacheErrors.WithLabelValues("invalidate").Inc()
				return removed, fmt.Errorf("redis unlink: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

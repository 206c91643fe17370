// Package cache keeps Synapse API GET responses in Redis.
//
// Entries are keyed by path, query and a per-user scope so that one
// account's feed is never served to another. Each entry holds the body and
// the validators the server sent with it. An entry with an ETag or
// Last-Modified is revalidated on every use and a 304 extends its lifetime.
// An entry without validators is served from Redis until it expires.
//
//	manager := cache.NewManager(rdb, cache.DefaultTTL)
//	key := cache.Key{Path: req.URL.Path, Query: req.URL.Query(), Scope: cache.ScopeFromToken(token)}
//
//	entry, err := manager.Get(ctx, key)
//	switch {
//	case errors.Is(err, cache.ErrCacheMiss):
//		// send the request and Put the result
//	case !entry.AddValidators(req):
//		return entry.Response(req), nil
//	}
//
// Mutations call InvalidatePath so that the next read goes to the server.
package cache

// Package repositorycache provides a cache-aside decorator for CRUD repositories.
//
// # Overview
//
// CachedRepository wraps a persistent store (the source of truth) and a cache
// store behind the same four operations, Add, Find, Update and Remove, so it
// can replace an uncached Repository without callers noticing anything other
// than latency and staleness.
//
// # Basic Usage
//
//	store, _ := cache.NewStore[*User](cache.DefaultConfig())
//	users, err := repositorycache.New[*User, string](baseRepo, store, "users",
//		repositorycache.WithLogger(logger),
//	)
//
//	user, found, err := users.Find(ctx, "user-123")
//
// # Caching Behavior
//
//   - Add: persistent store first, then the stored result is cached.
//   - Find: cache first; on a miss the persistent store is read and a found
//     record is backfilled. Absent records are never cached.
//   - Update: persistent store first, then the cache entry is overwritten,
//     priming it even if the key was not cached.
//   - Remove: the cache entry is deleted first, then the record.
//
// Keys are "<namespace>:<key>", see cache.FormatKey for the key encoding.
//
// # Consistency
//
// There is no transaction spanning both stores. Two concurrent misses on the
// same key both read the store and both backfill; WithMissCoalescing folds
// them into one read. A Find racing an Update can backfill the pre-update
// value after the Update wrote the cache. The cache TTL bounds that window and
// WithCacheBypass or Refresh force a read from the store.
//
// # Error Handling
//
// Persistent store errors are returned unchanged and skip the cache step that
// would follow. Cache failures are logged and swallowed by default: a failed
// lookup counts as a miss, a failed write leaves the entry cold. With
// WithCacheErrorPolicy(CacheErrorsFail) they are returned as *CacheError.
// Remove always reports a failed invalidation once the store removal succeeded.
//
// Add and Update ignore nil entities and return the zero value without
// touching either store, unless WithStrictNilCheck is set.
//
// # See Also
//
// For cache backends and key serialization, see the cache package.
// For dependency injection setup, see the pkg/di package.
package repositorycache

// Package cache provides the cache store contract and key derivation used by
// cache-aside repositories.
//
// # Overview
//
// This package exports the interfaces and constructors a cached repository needs:
//
//   - Store[V]: typed Get/Set/Delete, where a miss is (zero, false, nil)
//   - Backend: an untyped in-process store shared by several typed views
//   - PrefixDeleter: optional bulk removal by key prefix
//   - KeySerializer: builds "namespace:key" cache keys
//
// # Basic Usage
//
// In-process stores are built from a Config:
//
//	store, err := cache.NewStore[*User](cache.DefaultConfig())
//	key := cache.NewDefaultKeySerializer().SerializeKey("users", user.ID)
//	err = store.Set(ctx, key, user)
//
// Several repositories can share one backend through typed views:
//
//	backend, err := cache.NewBackend(cfg)
//	users := cache.Typed[*User](backend)
//	orders := cache.Typed[*Order](backend)
//
// Redis stores encode values and need a concrete type:
//
//	client, err := cache.NewRedisClient(ctx, cfg, logger)
//	store, err := cache.NewRedisStore[*User](client, cfg, logger)
//
// # Drivers
//
//   - sturdyc (default): sharded in-process cache with TTL and percentage eviction
//   - lru: hashicorp expirable LRU, bounded by Capacity with a per-entry TTL
//   - redis: go-redis with msgpack (default) or json encoding
//
// All three implement PrefixDeleter.
//
// # Key Derivation
//
// The default serializer renders keys as namespace + ":" + FormatKey(key).
// Namespaces are checked with ValidateNamespace and may not contain ":",
// so two distinct (namespace, key) pairs never share a cache key.
//
// FormatKey uses strings verbatim, strconv for numbers and booleans and String()
// for fmt.Stringer values such as uuid.UUID. Composite keys are encoded field by
// field, unexported fields included, so struct{ tenant, id string } keys stay
// distinct per tenant. Pointers are dereferenced.
//
// # See Also
//
// For the cache-aside decorator itself, see the repositorycache package.
package cache

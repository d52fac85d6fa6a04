package repositorycache

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/goliatone/go-cacheaside/cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Interface assertion to ensure CachedRepository is a drop-in Repository
var _ Repository[Entity[string], string] = (*CachedRepository[Entity[string], string])(nil)

// CachedRepository decorates a persistent store with a cache-aside layer.
//
// It holds no mutable state besides atomic counters, so a single instance is
// safe for concurrent use; thread safety of the data itself is delegated to
// the wrapped store and cache.
type CachedRepository[E Entity[K], K comparable] struct {
	base             Repository[E, K]
	cache            cache.Store[E]
	keySerializer    cache.KeySerializer
	namespace        string
	logger           zerolog.Logger
	strictNil        bool
	errorPolicy      CacheErrorPolicy
	batchConcurrency int
	flight           *singleflight.Group
	stats            counters
}

// New creates a CachedRepository that keeps store in sync with base.
// namespace prefixes every cache key and must be unique per entity type.
func New[E Entity[K], K comparable](base Repository[E, K], store cache.Store[E], namespace string, opts ...Option) (*CachedRepository[E, K], error) {
	if base == nil {
		return nil, errors.New("repositorycache: base repository is required")
	}
	if store == nil {
		return nil, errors.New("repositorycache: cache store is required")
	}
	if err := cache.ValidateNamespace(namespace); err != nil {
		return nil, fmt.Errorf("repositorycache: invalid namespace %q: %w", namespace, err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &CachedRepository[E, K]{
		base:             base,
		cache:            store,
		keySerializer:    o.keySerializer,
		namespace:        namespace,
		logger:           o.logger.With().Str("component", "CachedRepository").Str("namespace", namespace).Logger(),
		strictNil:        o.strictNil,
		errorPolicy:      o.errorPolicy,
		batchConcurrency: o.batchConcurrency,
	}
	if o.coalesceMisses {
		c.flight = &singleflight.Group{}
	}
	return c, nil
}

// Add stores entity in the persistent store, then caches the stored result.
// A failed store write leaves the cache untouched.
func (c *CachedRepository[E, K]) Add(ctx context.Context, entity E) (E, error) {
	if isNil(entity) {
		return c.nilEntity("add")
	}

	result, err := c.base.Add(ctx, entity)
	if err != nil {
		var zero E
		return zero, err
	}

	return result, c.write(ctx, "add", result)
}

// Find returns the cached entity for key, falling back to the persistent store
// on a miss and backfilling the cache with what it finds. Absent records are
// not cached.
func (c *CachedRepository[E, K]) Find(ctx context.Context, key K) (E, bool, error) {
	cacheKey := c.CacheKey(key)

	if cacheBypassFromContext(ctx) {
		return c.loadFromStore(ctx, key, cacheKey, true)
	}

	cached, ok, err := c.cache.Get(ctx, cacheKey)
	switch {
	case err != nil:
		if ferr := c.cacheFailure("get", cacheKey, err); ferr != nil {
			var zero E
			return zero, false, ferr
		}
	case ok:
		c.stats.hits.Add(1)
		c.logger.Debug().Str("key", cacheKey).Msg("cache hit")
		return cached, true, nil
	}

	c.stats.misses.Add(1)
	c.logger.Debug().Str("key", cacheKey).Msg("cache miss")

	if c.flight == nil {
		return c.loadFromStore(ctx, key, cacheKey, false)
	}

	// the shared read outlives any single caller, each caller waits on its own ctx
	loadCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(cacheKey, func() (any, error) {
		entity, found, err := c.loadFromStore(loadCtx, key, cacheKey, false)
		return lookup[E]{entity: entity, found: found}, err
	})

	select {
	case <-ctx.Done():
		var zero E
		return zero, false, ctx.Err()
	case res := <-ch:
		v, _ := res.Val.(lookup[E])
		return v.entity, v.found, res.Err
	}
}

// Update writes entity to the persistent store, then overwrites the cache entry
// with the stored result whether or not it was cached before.
func (c *CachedRepository[E, K]) Update(ctx context.Context, entity E) (E, error) {
	if isNil(entity) {
		return c.nilEntity("update")
	}

	result, err := c.base.Update(ctx, entity)
	if err != nil {
		var zero E
		return zero, err
	}

	return result, c.write(ctx, "update", result)
}

// Remove invalidates the cache entry, then removes the record from the
// persistent store. The store removal runs even if invalidation failed; in that
// case a successful removal returns a *CacheError since a stale entry may remain.
func (c *CachedRepository[E, K]) Remove(ctx context.Context, key K) error {
	cacheKey := c.CacheKey(key)

	cacheErr := c.cache.Delete(ctx, cacheKey)
	if cacheErr != nil {
		c.stats.cacheErrors.Add(1)
		c.logger.Warn().Err(cacheErr).Str("op", "remove").Str("key", cacheKey).Msg("cache invalidation failed")
	}

	if err := c.base.Remove(ctx, key); err != nil {
		return err
	}

	if cacheErr != nil {
		return &CacheError{Op: "remove", Key: cacheKey, Err: cacheErr}
	}
	return nil
}

// Refresh reads key from the persistent store, ignoring the cache, and
// overwrites or invalidates the cache entry to match.
func (c *CachedRepository[E, K]) Refresh(ctx context.Context, key K) (E, bool, error) {
	return c.Find(WithCacheBypass(ctx), key)
}

// Invalidate removes the cache entry for key without touching the persistent store.
func (c *CachedRepository[E, K]) Invalidate(ctx context.Context, key K) error {
	cacheKey := c.CacheKey(key)
	if err := c.cache.Delete(ctx, cacheKey); err != nil {
		c.stats.cacheErrors.Add(1)
		return &CacheError{Op: "invalidate", Key: cacheKey, Err: err}
	}
	return nil
}

// Purge drops every cache entry in this repository's namespace.
// It requires a cache store implementing cache.PrefixDeleter and keys built
// by the default serializer.
func (c *CachedRepository[E, K]) Purge(ctx context.Context) error {
	deleter, ok := c.cache.(cache.PrefixDeleter)
	if !ok {
		return ErrPurgeUnsupported
	}

	prefix := cache.NamespacePrefix(c.namespace)
	if err := deleter.DeletePrefix(ctx, prefix); err != nil {
		c.stats.cacheErrors.Add(1)
		return &CacheError{Op: "purge", Key: prefix, Err: err}
	}

	c.logger.Debug().Msg("namespace purged")
	return nil
}

// CacheKey returns the cache key derived from the namespace and key.
func (c *CachedRepository[E, K]) CacheKey(key K) string {
	return c.keySerializer.SerializeKey(c.namespace, key)
}

// Namespace returns the cache key namespace.
func (c *CachedRepository[E, K]) Namespace() string {
	return c.namespace
}

// Base returns the wrapped persistent store.
func (c *CachedRepository[E, K]) Base() Repository[E, K] {
	return c.base
}

// Stats returns a snapshot of the cache counters.
func (c *CachedRepository[E, K]) Stats() Stats {
	return c.stats.snapshot()
}

type lookup[E any] struct {
	entity E
	found  bool
}

// loadFromStore reads key from the persistent store and backfills the cache.
// When refresh is set an absent record also evicts any cached copy.
func (c *CachedRepository[E, K]) loadFromStore(ctx context.Context, key K, cacheKey string, refresh bool) (E, bool, error) {
	var zero E

	c.stats.storeReads.Add(1)
	entity, found, err := c.base.Find(ctx, key)
	if err != nil {
		return zero, false, err
	}

	if !found || isNil(entity) {
		if refresh {
			if err := c.cache.Delete(ctx, cacheKey); err != nil {
				if ferr := c.cacheFailure("refresh", cacheKey, err); ferr != nil {
					return zero, false, ferr
				}
			}
		}
		return zero, false, nil
	}

	if err := c.cache.Set(ctx, cacheKey, entity); err != nil {
		if ferr := c.cacheFailure("backfill", cacheKey, err); ferr != nil {
			return entity, true, ferr
		}
		return entity, true, nil
	}

	c.stats.backfills.Add(1)
	return entity, true, nil
}

// write caches entity under its own key after a successful store write.
func (c *CachedRepository[E, K]) write(ctx context.Context, op string, entity E) error {
	if isNil(entity) {
		return nil
	}

	cacheKey := c.CacheKey(entity.GetKey())
	if err := c.cache.Set(ctx, cacheKey, entity); err != nil {
		return c.cacheFailure(op, cacheKey, err)
	}
	return nil
}

// cacheFailure records a cache error and returns it only under CacheErrorsFail.
func (c *CachedRepository[E, K]) cacheFailure(op, cacheKey string, err error) error {
	c.stats.cacheErrors.Add(1)

	if c.errorPolicy == CacheErrorsFail {
		return &CacheError{Op: op, Key: cacheKey, Err: err}
	}

	c.logger.Warn().Err(err).Str("op", op).Str("key", cacheKey).Msg("cache store failure ignored")
	return nil
}

func (c *CachedRepository[E, K]) nilEntity(op string) (E, error) {
	var zero E
	if c.strictNil {
		return zero, fmt.Errorf("%s: %w", op, ErrNilEntity)
	}
	c.logger.Debug().Str("op", op).Msg("nil entity ignored")
	return zero, nil
}

// isNil reports whether v is nil or a nil pointer, map, slice, func, chan or interface.
func isNil[E any](v E) bool {
	value := any(v)
	if value == nil {
		return true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

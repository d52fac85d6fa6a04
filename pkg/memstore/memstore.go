// Package memstore is an in-memory persistent store implementing
// repositorycache.Repository. It is meant for tests, demos and small
// single-process deployments.
package memstore

import (
	"context"

	"github.com/goliatone/go-cacheaside/cache"
	"github.com/goliatone/go-cacheaside/repositorycache"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

var (
	// ErrNotFound is returned by Update and Remove for unknown keys.
	ErrNotFound = errors.New("memstore: record not found")
	// ErrDuplicateKey is returned by Add when the key is already taken.
	ErrDuplicateKey = errors.New("memstore: duplicate key")
)

// Store keeps records in a concurrent map keyed by GetKey.
type Store[E repositorycache.Entity[K], K comparable] struct {
	records  *xsync.MapOf[K, E]
	assigner func(E) E
}

// Option configures a Store.
type Option[E repositorycache.Entity[K], K comparable] func(*Store[E, K])

// WithKeyAssigner runs fn on every entity passed to Add, typically to assign
// a generated key or creation timestamp. The returned entity is stored.
func WithKeyAssigner[E repositorycache.Entity[K], K comparable](fn func(E) E) Option[E, K] {
	return func(s *Store[E, K]) {
		s.assigner = fn
	}
}

// New creates an empty Store.
func New[E repositorycache.Entity[K], K comparable](opts ...Option[E, K]) *Store[E, K] {
	s := &Store[E, K]{
		records: xsync.NewMapOf[K, E](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add inserts entity. It fails with ErrDuplicateKey if the key exists.
func (s *Store[E, K]) Add(ctx context.Context, entity E) (E, error) {
	var zero E
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if s.assigner != nil {
		entity = s.assigner(entity)
	}

	key := entity.GetKey()
	if _, loaded := s.records.LoadOrStore(key, entity); loaded {
		return zero, errors.Wrapf(ErrDuplicateKey, "add %s", cache.FormatKey(key))
	}
	return entity, nil
}

// Find returns the record stored under key.
func (s *Store[E, K]) Find(ctx context.Context, key K) (E, bool, error) {
	var zero E
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	entity, ok := s.records.Load(key)
	return entity, ok, nil
}

// Update replaces an existing record. It fails with ErrNotFound if the key is unknown.
func (s *Store[E, K]) Update(ctx context.Context, entity E) (E, error) {
	var zero E
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	key := entity.GetKey()
	_, ok := s.records.Compute(key, func(old E, loaded bool) (E, bool) {
		if !loaded {
			return old, true
		}
		return entity, false
	})
	if !ok {
		return zero, errors.Wrapf(ErrNotFound, "update %s", cache.FormatKey(key))
	}
	return entity, nil
}

// Remove deletes the record stored under key. It fails with ErrNotFound if the
// key is unknown, so removing twice is an error.
func (s *Store[E, K]) Remove(ctx context.Context, key K) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, ok := s.records.LoadAndDelete(key); !ok {
		return errors.Wrapf(ErrNotFound, "remove %s", cache.FormatKey(key))
	}
	return nil
}

// Len returns the number of stored records.
func (s *Store[E, K]) Len() int {
	return s.records.Size()
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidResultType is returned when a backend holds a value of a different type than the typed view expects.
var ErrInvalidResultType = errors.New("cache: invalid result type")

// KeySerializer builds a cache key from a namespace and an entity key.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(namespace string, key any) string
}

// Store is the cache-aside contract consumed by cached repositories.
// A miss is reported as (zero, false, nil); errors are reserved for backend failures.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V) error
	Delete(ctx context.Context, key string) error
}

// PrefixDeleter is implemented by stores that can drop every key sharing a prefix.
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

// Backend is an untyped in-process key-value store. Several typed views can share one backend.
type Backend interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Typed returns a Store[V] view over an untyped backend.
// The view forwards DeletePrefix when the backend supports it.
func Typed[V any](backend Backend) Store[V] {
	if pd, ok := backend.(PrefixDeleter); ok {
		return &prefixTypedStore[V]{typedStore: typedStore[V]{backend: backend}, deleter: pd}
	}
	return &typedStore[V]{backend: backend}
}

type typedStore[V any] struct {
	backend Backend
}

func (s *typedStore[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V

	value, ok, err := s.backend.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}

	// nil carries no entity, so it is a miss whoever wrote it
	if value == nil {
		return zero, false, nil
	}
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return zero, false, nil
	}

	typed, ok := value.(V)
	if !ok {
		return zero, false, fmt.Errorf("%w: key %q holds %T", ErrInvalidResultType, key, value)
	}
	return typed, true, nil
}

func (s *typedStore[V]) Set(ctx context.Context, key string, value V) error {
	return s.backend.Set(ctx, key, value)
}

func (s *typedStore[V]) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

type prefixTypedStore[V any] struct {
	typedStore[V]
	deleter PrefixDeleter
}

func (s *prefixTypedStore[V]) DeletePrefix(ctx context.Context, prefix string) error {
	return s.deleter.DeletePrefix(ctx, prefix)
}

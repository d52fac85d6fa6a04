package repositorycache

import "context"

// Entity is implemented by records that expose their identity.
type Entity[K comparable] interface {
	GetKey() K
}

// Repository is the CRUD contract shared by persistent stores and CachedRepository.
//
// Find reports an absent record as (zero, false, nil); errors are reserved for
// store failures.
type Repository[E Entity[K], K comparable] interface {
	Add(ctx context.Context, entity E) (E, error)
	Find(ctx context.Context, key K) (E, bool, error)
	Update(ctx context.Context, entity E) (E, error)
	Remove(ctx context.Context, key K) error
}

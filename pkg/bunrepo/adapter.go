// Package bunrepo exposes a go-repository-bun repository as a
// repositorycache.Repository so it can sit behind a CachedRepository.
package bunrepo

import (
	"context"

	"github.com/goliatone/go-cacheaside/cache"
	"github.com/goliatone/go-cacheaside/repositorycache"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/pkg/errors"
)

// ErrNotFound is returned by Remove when the record does not exist.
var ErrNotFound = errors.New("bunrepo: record not found")

// RecordRepository is the subset of repository.Repository[T] the adapter calls.
type RecordRepository[T any] interface {
	Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error)
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error)
	Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error)
	Delete(ctx context.Context, record T) error
}

// Interface assertion to ensure full go-repository-bun repositories are accepted
var _ RecordRepository[any] = (repository.Repository[any])(nil)

// Adapter maps Add/Find/Update/Remove onto Create/GetByID/Update/Delete.
type Adapter[E repositorycache.Entity[K], K comparable] struct {
	base       RecordRepository[E]
	isNotFound func(error) bool
	formatID   func(K) string
}

// Option configures an Adapter.
type Option[E repositorycache.Entity[K], K comparable] func(*Adapter[E, K])

// WithNotFound sets the predicate classifying GetByID errors as "record absent".
// The default is repository.IsRecordNotFound, which matches both sql.ErrNoRows
// and the mapped database_not_found errors GetByID returns.
func WithNotFound[E repositorycache.Entity[K], K comparable](fn func(error) bool) Option[E, K] {
	return func(a *Adapter[E, K]) {
		if fn != nil {
			a.isNotFound = fn
		}
	}
}

// WithIDFormatter sets how keys are turned into the string IDs GetByID expects.
// The default is cache.FormatKey.
func WithIDFormatter[E repositorycache.Entity[K], K comparable](fn func(K) string) Option[E, K] {
	return func(a *Adapter[E, K]) {
		if fn != nil {
			a.formatID = fn
		}
	}
}

// New wraps base.
func New[E repositorycache.Entity[K], K comparable](base RecordRepository[E], opts ...Option[E, K]) *Adapter[E, K] {
	a := &Adapter[E, K]{
		base:       base,
		isNotFound: repository.IsRecordNotFound,
		formatID: func(key K) string {
			return cache.FormatKey(key)
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add creates entity.
func (a *Adapter[E, K]) Add(ctx context.Context, entity E) (E, error) {
	return a.base.Create(ctx, entity)
}

// Find loads the record by ID. Not-found errors become (zero, false, nil).
func (a *Adapter[E, K]) Find(ctx context.Context, key K) (E, bool, error) {
	var zero E

	record, err := a.base.GetByID(ctx, a.formatID(key))
	if err != nil {
		if a.isNotFound(err) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return record, true, nil
}

// Update updates entity.
func (a *Adapter[E, K]) Update(ctx context.Context, entity E) (E, error) {
	return a.base.Update(ctx, entity)
}

// Remove loads the record by ID and deletes it. A missing record fails with ErrNotFound.
func (a *Adapter[E, K]) Remove(ctx context.Context, key K) error {
	id := a.formatID(key)

	record, err := a.base.GetByID(ctx, id)
	if err != nil {
		if a.isNotFound(err) {
			return errors.Wrapf(ErrNotFound, "remove %s", id)
		}
		return err
	}
	return a.base.Delete(ctx, record)
}

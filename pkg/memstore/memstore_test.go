package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   uuid.UUID
	Body string
}

func (n *note) GetKey() uuid.UUID { return n.ID }

func newNoteStore() *Store[*note, uuid.UUID] {
	return New[*note, uuid.UUID](WithKeyAssigner[*note, uuid.UUID](func(n *note) *note {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		return n
	}))
}

func TestStore_CRUD(t *testing.T) {
	store := newNoteStore()
	ctx := context.Background()

	created, err := store.Add(ctx, &note{Body: "hello"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID, "key assigner should set an ID")

	found, ok, err := store.Find(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", found.Body)

	updated, err := store.Update(ctx, &note{ID: created.ID, Body: "bye"})
	require.NoError(t, err)
	assert.Equal(t, "bye", updated.Body)

	found, _, _ = store.Find(ctx, created.ID)
	assert.Equal(t, "bye", found.Body)

	require.NoError(t, store.Remove(ctx, created.ID))
	_, ok, err = store.Find(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStore_DuplicateKey(t *testing.T) {
	store := newNoteStore()
	ctx := context.Background()
	id := uuid.New()

	_, err := store.Add(ctx, &note{ID: id})
	require.NoError(t, err)

	_, err = store.Add(ctx, &note{ID: id})
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, 1, store.Len())
}

func TestStore_NotFound(t *testing.T) {
	store := newNoteStore()
	ctx := context.Background()
	id := uuid.New()

	_, err := store.Update(ctx, &note{ID: id})
	assert.ErrorIs(t, err, ErrNotFound)

	_, ok, _ := store.Find(ctx, id)
	assert.False(t, ok, "a failed update must not insert")

	assert.ErrorIs(t, store.Remove(ctx, id), ErrNotFound)
}

func TestStore_RemoveTwice(t *testing.T) {
	store := newNoteStore()
	ctx := context.Background()

	created, err := store.Add(ctx, &note{})
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, created.ID))
	assert.ErrorIs(t, store.Remove(ctx, created.ID), ErrNotFound)
}

func TestStore_CanceledContext(t *testing.T) {
	store := newNoteStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Add(ctx, &note{})
	assert.ErrorIs(t, err, context.Canceled)
	_, _, err = store.Find(ctx, uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Update(ctx, &note{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Remove(ctx, uuid.New()), context.Canceled)
}

func TestStore_ConcurrentAdd(t *testing.T) {
	store := New[*note, uuid.UUID]()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Add(ctx, &note{ID: uuid.New(), Body: fmt.Sprint(i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
}

package testsupport

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-cacheaside/repositorycache"
)

// User is the entity used across the test suites.
type User struct {
	ID      string `json:"id" msgpack:"id"`
	Name    string `json:"name" msgpack:"name"`
	Email   string `json:"email" msgpack:"email"`
	Version int    `json:"version" msgpack:"version"`
}

// GetKey implements repositorycache.Entity.
func (u *User) GetKey() string { return u.ID }

// CallLog records calls from several doubles in the order they happened.
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

// Record appends a call.
func (l *CallLog) Record(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

// Calls returns a copy of the recorded calls.
func (l *CallLog) Calls() []string {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Reset forgets all recorded calls.
func (l *CallLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

// CountingRepository wraps a persistent store, counting calls per operation
// and optionally failing them.
type CountingRepository[E repositorycache.Entity[K], K comparable] struct {
	base repositorycache.Repository[E, K]
	log  *CallLog

	mu     sync.Mutex
	counts map[string]int
	errs   map[string]error
}

// NewCountingRepository wraps base. log may be nil.
func NewCountingRepository[E repositorycache.Entity[K], K comparable](base repositorycache.Repository[E, K], log *CallLog) *CountingRepository[E, K] {
	return &CountingRepository[E, K]{
		base:   base,
		log:    log,
		counts: make(map[string]int),
		errs:   make(map[string]error),
	}
}

// FailOn makes every subsequent call of op ("add", "find", "update", "remove") return err.
// A nil err clears the failure.
func (r *CountingRepository[E, K]) FailOn(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.errs, op)
		return
	}
	r.errs[op] = err
}

// Count returns how many times op was called.
func (r *CountingRepository[E, K]) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[op]
}

// Total returns the number of calls across all operations.
func (r *CountingRepository[E, K]) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.counts {
		total += n
	}
	return total
}

func (r *CountingRepository[E, K]) track(op string) error {
	r.log.Record("store." + op)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[op]++
	return r.errs[op]
}

func (r *CountingRepository[E, K]) Add(ctx context.Context, entity E) (E, error) {
	if err := r.track("add"); err != nil {
		var zero E
		return zero, err
	}
	return r.base.Add(ctx, entity)
}

func (r *CountingRepository[E, K]) Find(ctx context.Context, key K) (E, bool, error) {
	if err := r.track("find"); err != nil {
		var zero E
		return zero, false, err
	}
	return r.base.Find(ctx, key)
}

func (r *CountingRepository[E, K]) Update(ctx context.Context, entity E) (E, error) {
	if err := r.track("update"); err != nil {
		var zero E
		return zero, err
	}
	return r.base.Update(ctx, entity)
}

func (r *CountingRepository[E, K]) Remove(ctx context.Context, key K) error {
	if err := r.track("remove"); err != nil {
		return err
	}
	return r.base.Remove(ctx, key)
}

// CountingCache is a map-backed cache.Store that counts calls and can fail them.
// It also implements cache.PrefixDeleter.
type CountingCache[V any] struct {
	log *CallLog

	mu      sync.Mutex
	storage map[string]V
	counts  map[string]int
	errs    map[string]error
}

// NewCountingCache creates an empty cache. log may be nil.
func NewCountingCache[V any](log *CallLog) *CountingCache[V] {
	return &CountingCache[V]{
		log:     log,
		storage: make(map[string]V),
		counts:  make(map[string]int),
		errs:    make(map[string]error),
	}
}

// FailOn makes every subsequent call of op ("get", "set", "delete", "delete_prefix") return err.
// A nil err clears the failure.
func (c *CountingCache[V]) FailOn(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.errs, op)
		return
	}
	c.errs[op] = err
}

// Count returns how many times op was called.
func (c *CountingCache[V]) Count(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[op]
}

// Put stores value without counting the call.
func (c *CountingCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storage[key] = value
}

// Peek returns the stored value without counting the call.
func (c *CountingCache[V]) Peek(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.storage[key]
	return v, ok
}

// Keys returns the stored keys in sorted order.
func (c *CountingCache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.storage))
	for k := range c.storage {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *CountingCache[V]) track(op, key string) error {
	c.log.Record("cache." + op + ":" + key)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[op]++
	return c.errs[op]
}

func (c *CountingCache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if err := c.track("get", key); err != nil {
		return zero, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.storage[key]
	return v, ok, nil
}

func (c *CountingCache[V]) Set(ctx context.Context, key string, value V) error {
	if err := c.track("set", key); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storage[key] = value
	return nil
}

func (c *CountingCache[V]) Delete(ctx context.Context, key string) error {
	if err := c.track("delete", key); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.storage, key)
	return nil
}

func (c *CountingCache[V]) DeletePrefix(ctx context.Context, prefix string) error {
	if err := c.track("delete_prefix", prefix); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.storage {
		if strings.HasPrefix(k, prefix) {
			delete(c.storage, k)
		}
	}
	return nil
}

package repositorycache

import (
	"github.com/goliatone/go-cacheaside/cache"
	"github.com/rs/zerolog"
)

// CacheErrorPolicy decides what happens when a cache store call fails.
type CacheErrorPolicy int

const (
	// CacheErrorsSwallow logs cache failures and carries on: a failed lookup
	// becomes a miss, a failed write leaves the cache cold.
	CacheErrorsSwallow CacheErrorPolicy = iota
	// CacheErrorsFail returns cache failures to the caller as *CacheError.
	// The persistent store outcome is never rolled back.
	CacheErrorsFail
)

func (p CacheErrorPolicy) String() string {
	switch p {
	case CacheErrorsSwallow:
		return "swallow"
	case CacheErrorsFail:
		return "fail"
	default:
		return "unknown"
	}
}

const defaultBatchConcurrency = 16

type options struct {
	logger           zerolog.Logger
	keySerializer    cache.KeySerializer
	strictNil        bool
	errorPolicy      CacheErrorPolicy
	coalesceMisses   bool
	batchConcurrency int
}

func defaultOptions() options {
	return options{
		logger:           zerolog.Nop(),
		keySerializer:    cache.NewDefaultKeySerializer(),
		errorPolicy:      CacheErrorsSwallow,
		batchConcurrency: defaultBatchConcurrency,
	}
}

// Option configures a CachedRepository.
type Option func(*options)

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithKeySerializer replaces the default namespace:key serializer.
func WithKeySerializer(serializer cache.KeySerializer) Option {
	return func(o *options) {
		if serializer != nil {
			o.keySerializer = serializer
		}
	}
}

// WithStrictNilCheck makes Add and Update return ErrNilEntity for nil entities
// instead of silently returning the zero value.
func WithStrictNilCheck() Option {
	return func(o *options) {
		o.strictNil = true
	}
}

// WithCacheErrorPolicy sets how cache store failures are surfaced.
func WithCacheErrorPolicy(policy CacheErrorPolicy) Option {
	return func(o *options) {
		o.errorPolicy = policy
	}
}

// WithMissCoalescing collapses concurrent Find misses on the same key into a
// single persistent store read. The shared read ignores cancellation of the
// caller that started it; each caller stops waiting when its own ctx is done.
func WithMissCoalescing() Option {
	return func(o *options) {
		o.coalesceMisses = true
	}
}

// WithBatchConcurrency bounds the number of concurrent lookups in FindMany.
func WithBatchConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchConcurrency = n
		}
	}
}

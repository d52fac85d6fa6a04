package di

import (
	"context"

	"github.com/goliatone/go-cacheaside/cache"
	"github.com/goliatone/go-cacheaside/repositorycache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Container provides dependency injection for cache related components.
// It owns one cache backend shared by every cached repository it builds, the
// key serializer and the logger.
type Container struct {
	backend       cache.Backend
	redis         *redis.Client
	keySerializer cache.KeySerializer
	logger        zerolog.Logger
	config        cache.Config
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger handed to the backends and cached repositories.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithKeySerializer replaces the default key serializer.
func WithKeySerializer(serializer cache.KeySerializer) Option {
	return func(c *Container) {
		if serializer != nil {
			c.keySerializer = serializer
		}
	}
}

// NewContainer creates a new DI container with the provided cache configuration.
// For the redis driver it connects to the server; in-process drivers allocate
// a single backend.
func NewContainer(ctx context.Context, config cache.Config, opts ...Option) (*Container, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		keySerializer: cache.NewDefaultKeySerializer(),
		logger:        zerolog.Nop(),
		config:        config,
	}
	for _, opt := range opts {
		opt(c)
	}

	if config.Driver == cache.DriverRedis {
		client, err := cache.NewRedisClient(ctx, config, c.logger)
		if err != nil {
			return nil, err
		}
		c.redis = client
		return c, nil
	}

	backend, err := cache.NewBackend(config)
	if err != nil {
		return nil, err
	}
	c.backend = backend
	return c, nil
}

// NewContainerWithDefaults creates a new DI container using the default in-process configuration.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(context.Background(), cache.DefaultConfig())
}

// Backend returns the shared in-process backend, or nil for the redis driver.
func (c *Container) Backend() cache.Backend {
	return c.backend
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Logger returns the container logger.
func (c *Container) Logger() zerolog.Logger {
	return c.logger
}

// Config returns a copy of the cache configuration used by this container.
func (c *Container) Config() cache.Config {
	return c.config
}

// Close releases the Redis connection, if any.
func (c *Container) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

// StoreFor returns a cache store for values of type V on the container's backend.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
func StoreFor[V any](c *Container) (cache.Store[V], error) {
	if c.redis != nil {
		return cache.NewRedisStore[V](c.redis, c.config, c.logger)
	}
	return cache.Typed[V](c.backend), nil
}

// NewCachedRepository wires a cached repository around base, using the
// container's backend, key serializer and logger.
//
// Example: NewCachedRepository[*User, string](container, userStore, "users")
func NewCachedRepository[E repositorycache.Entity[K], K comparable](
	c *Container,
	base repositorycache.Repository[E, K],
	namespace string,
	opts ...repositorycache.Option,
) (*repositorycache.CachedRepository[E, K], error) {
	store, err := StoreFor[E](c)
	if err != nil {
		return nil, err
	}

	defaults := []repositorycache.Option{
		repositorycache.WithLogger(c.logger),
		repositorycache.WithKeySerializer(c.keySerializer),
	}
	return repositorycache.New[E, K](base, store, namespace, append(defaults, opts...)...)
}

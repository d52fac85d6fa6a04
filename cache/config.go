package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-cacheaside/internal/cacheinfra"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Driver names for Config.Driver.
const (
	DriverSturdyc = cacheinfra.DriverSturdyc
	DriverLRU     = cacheinfra.DriverLRU
	DriverRedis   = cacheinfra.DriverRedis
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Driver             string
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration
	Redis              *RedisConfig
}

// RedisConfig mirrors the Redis store options.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Codec     string
	ScanCount int64
}

// Codec turns cached values into bytes for out-of-process stores.
type Codec = cacheinfra.Codec

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if c.Driver == DriverRedis {
		if c.Redis == nil {
			return &cacheinfra.ConfigError{Field: "Redis", Message: "required for the redis driver"}
		}
		return c.redisToInternal().Validate()
	}
	return c.toInternal().Validate()
}

// NewBackend constructs an in-process backend (sturdyc or lru) from cfg.
// The redis driver stores encoded values and needs a concrete type, see NewRedisStore.
func NewBackend(cfg Config) (Backend, error) {
	switch cfg.Driver {
	case DriverLRU:
		backend, err := cacheinfra.NewLRUService(cfg.toInternal())
		if err != nil {
			return nil, err
		}
		return backend, nil
	case DriverRedis:
		return nil, &cacheinfra.ConfigError{Field: "Driver", Message: "redis has no untyped backend, use NewRedisStore"}
	default:
		backend, err := cacheinfra.NewSturdycService(cfg.toInternal())
		if err != nil {
			return nil, err
		}
		return backend, nil
	}
}

// NewStore constructs an in-process typed store from cfg.
func NewStore[V any](cfg Config) (Store[V], error) {
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	return Typed[V](backend), nil
}

// NewRedisClient connects to the Redis server described by cfg.Redis.
func NewRedisClient(ctx context.Context, cfg Config, logger zerolog.Logger) (*redis.Client, error) {
	if cfg.Redis == nil {
		return nil, &cacheinfra.ConfigError{Field: "Redis", Message: "required for the redis driver"}
	}
	return cacheinfra.NewRedisClient(ctx, cfg.redisToInternal(), logger)
}

// NewRedisStore constructs a typed Redis store over an existing client.
// Entries expire after cfg.TTL.
func NewRedisStore[V any](client redis.Cmdable, cfg Config, logger zerolog.Logger) (Store[V], error) {
	if cfg.Redis == nil {
		cfg.Redis = &RedisConfig{}
	}
	store, err := cacheinfra.NewRedisStore[V](client, cfg.redisToInternal(), logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// CodecByName resolves "msgpack" (default) or "json".
func CodecByName(name string) (Codec, error) {
	return cacheinfra.CodecByName(name)
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Driver:             c.Driver,
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func (c Config) redisToInternal() cacheinfra.RedisConfig {
	out := cacheinfra.RedisConfig{TTL: c.TTL}
	if c.Redis != nil {
		out.Addr = c.Redis.Addr
		out.Password = c.Redis.Password
		out.DB = c.Redis.DB
		out.Codec = c.Redis.Codec
		out.ScanCount = c.Redis.ScanCount
	}
	return out
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Driver:             cfg.Driver,
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}

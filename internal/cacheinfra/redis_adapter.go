package cacheinfra

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis cache store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL applied to every entry. Zero keeps entries until they are deleted.
	TTL time.Duration
	// Codec is "msgpack" (default) or "json".
	Codec string
	// ScanCount is the COUNT hint used when deleting by prefix.
	ScanCount int64
}

// DefaultRedisConfig returns a local Redis configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		TTL:       5 * time.Minute,
		Codec:     CodecMsgpack,
		ScanCount: 100,
	}
}

// Validate checks if the configuration values are valid.
func (c RedisConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DB, validation.Min(0)),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
		validation.Field(&c.Codec, validation.In(CodecMsgpack, CodecJSON)),
		validation.Field(&c.ScanCount, validation.Min(int64(0))),
	)
}

// NewRedisClient connects to Redis and pings it before returning.
func NewRedisClient(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (*redis.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "failed to connect to redis")
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("connected to redis")
	return rdb, nil
}

// RedisStore is a typed cache store backed by Redis. Values are encoded with a Codec.
type RedisStore[V any] struct {
	client    redis.Cmdable
	codec     Codec
	ttl       time.Duration
	scanCount int64
	logger    zerolog.Logger
}

// NewRedisStore creates a store over an existing client.
func NewRedisStore[V any](client redis.Cmdable, cfg RedisConfig, logger zerolog.Logger) (*RedisStore[V], error) {
	codec, err := CodecByName(cfg.Codec)
	if err != nil {
		return nil, err
	}

	scanCount := cfg.ScanCount
	if scanCount <= 0 {
		scanCount = 100
	}

	return &RedisStore[V]{
		client:    client,
		codec:     codec,
		ttl:       cfg.TTL,
		scanCount: scanCount,
		logger:    logger.With().Str("component", "RedisStore").Str("codec", codec.Name()).Logger(),
	}, nil
}

// Get fetches and decodes the value under key. redis.Nil is a miss.
func (s *RedisStore[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, errors.Wrapf(err, "redis get %s", key)
	}

	var value V
	if err := s.codec.Unmarshal(data, &value); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to decode cached value")
		return zero, false, errors.Wrapf(err, "decode %s", key)
	}

	return value, true, nil
}

// Set encodes value and stores it with the configured TTL.
func (s *RedisStore[V]) Set(ctx context.Context, key string, value V) error {
	data, err := s.codec.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *RedisStore[V]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrapf(err, "redis del %s", key)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix using SCAN.
func (s *RedisStore[V]) DeletePrefix(ctx context.Context, prefix string) error {
	match := escapeGlob(prefix) + "*"

	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, s.scanCount).Result()
		if err != nil {
			return errors.Wrapf(err, "redis scan %s", match)
		}

		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return errors.Wrapf(err, "redis del %d keys", len(keys))
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

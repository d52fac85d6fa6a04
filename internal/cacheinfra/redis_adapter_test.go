//go:build integration

package cacheinfra

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type redisTestValue struct {
	ID   string `json:"id" msgpack:"id"`
	Data []byte `json:"data" msgpack:"data"`
}

// newTestRedisConfig points at REDIS_ADDR and skips the test when it is unset.
func newTestRedisConfig(t *testing.T) RedisConfig {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	cfg := DefaultRedisConfig()
	cfg.Addr = addr
	cfg.TTL = time.Minute
	return cfg
}

func TestRedisStore_Integration(t *testing.T) {
	cfg := newTestRedisConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	client, err := NewRedisClient(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	// unique namespace per run so parallel runs do not collide
	ns := "it-" + uuid.NewString() + ":"

	for _, codec := range []string{CodecMsgpack, CodecJSON} {
		t.Run(codec, func(t *testing.T) {
			cfg.Codec = codec
			store, err := NewRedisStore[*redisTestValue](client, cfg, zerolog.Nop())
			require.NoError(t, err)

			prefix := ns + codec + ":"
			key := prefix + "1"
			value := &redisTestValue{ID: "test-id", Data: []byte("hello world")}

			t.Run("Get Miss", func(t *testing.T) {
				got, ok, err := store.Get(ctx, prefix+"missing")
				require.NoError(t, err)
				assert.False(t, ok)
				assert.Nil(t, got)
			})

			t.Run("Set and Get", func(t *testing.T) {
				require.NoError(t, store.Set(ctx, key, value))

				got, ok, err := store.Get(ctx, key)
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, value, got)

				ttl, err := client.TTL(ctx, key).Result()
				require.NoError(t, err)
				assert.Greater(t, ttl, time.Duration(0))
			})

			t.Run("Delete", func(t *testing.T) {
				require.NoError(t, store.Delete(ctx, key))
				_, ok, err := store.Get(ctx, key)
				require.NoError(t, err)
				assert.False(t, ok)

				// deleting again is not an error
				require.NoError(t, store.Delete(ctx, key))
			})

			t.Run("DeletePrefix", func(t *testing.T) {
				for i := 0; i < 250; i++ {
					require.NoError(t, store.Set(ctx, fmt.Sprintf("%s%d", prefix, i), value))
				}
				other := ns + "other:1"
				require.NoError(t, store.Set(ctx, other, value))
				t.Cleanup(func() { _ = store.Delete(ctx, other) })

				require.NoError(t, store.DeletePrefix(ctx, prefix))

				left, err := client.Keys(ctx, prefix+"*").Result()
				require.NoError(t, err)
				assert.Empty(t, left)

				_, ok, err := store.Get(ctx, other)
				require.NoError(t, err)
				assert.True(t, ok)
			})

			t.Run("Undecodable value", func(t *testing.T) {
				bad := prefix + "bad"
				require.NoError(t, client.Set(ctx, bad, "\xc1not-valid", time.Minute).Err())
				t.Cleanup(func() { _ = client.Del(ctx, bad).Err() })

				_, ok, err := store.Get(ctx, bad)
				assert.Error(t, err)
				assert.False(t, ok)
			})
		})
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	cfg := DefaultRedisConfig()
	cfg.Addr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "failed to connect to redis")
}

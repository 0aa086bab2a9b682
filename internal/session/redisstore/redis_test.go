package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickfuel-admin/internal/session"
)

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	// Skip test if Redis is not available
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   3, // Use separate DB for session tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.FlushDB(ctx)

	store, err := New(Config{Client: client, KeyPrefix: "test:session:"})
	require.NoError(t, err)
	defer store.Close()

	t.Run("SaveAndGet", func(t *testing.T) {
		record := &session.Record{
			ID:          "sess-1",
			AccessToken: "abc",
			UserDetails: `{"role":"admin"}`,
			CreatedAt:   time.Now().UTC().Truncate(time.Second),
			ExpiresAt:   time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		}
		require.NoError(t, store.Save(ctx, record))

		got, err := store.Get(ctx, "sess-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "abc", got.AccessToken)
		assert.Equal(t, `{"role":"admin"}`, got.UserDetails)

		ttl, err := client.TTL(ctx, "test:session:sess-1").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &session.Record{ID: "sess-2", AccessToken: "x"}))
		require.NoError(t, store.Delete(ctx, "sess-2"))

		got, err := store.Get(ctx, "sess-2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SaveExpiredRemoves", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &session.Record{ID: "sess-3", AccessToken: "x"}))
		require.NoError(t, store.Save(ctx, &session.Record{
			ID:          "sess-3",
			AccessToken: "x",
			ExpiresAt:   time.Now().Add(-time.Minute),
		}))

		got, err := store.Get(ctx, "sess-3")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

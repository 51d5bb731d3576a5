package storage_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cataloguebot/whatsapp-gate/internal/gate"
	"github.com/cataloguebot/whatsapp-gate/internal/storage"
)

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()

	runStoreContract(t, func(t *testing.T) storage.SessionStore {
		client, err := storage.ConnectRedis(ctx, storage.RedisConfig{ConnectionURL: url})
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })
		// fresh prefix per subtest keeps runs independent
		return storage.NewRedisStore(client, "test:"+uuid.NewString()+":")
	})
}

func TestConnectRedisRejectsBadURL(t *testing.T) {
	ctx := context.Background()

	_, err := storage.ConnectRedis(ctx, storage.RedisConfig{})
	assert.Error(t, err)

	_, err = storage.ConnectRedis(ctx, storage.RedisConfig{ConnectionURL: "http://not-redis"})
	assert.Error(t, err)
}

func TestRedisStoreWrapsFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client, err := storage.ConnectRedis(context.Background(), storage.RedisConfig{ConnectionURL: os.Getenv("REDIS_URL")})
	if err != nil {
		t.Skip("redis unavailable")
	}
	defer client.Close()

	store := storage.NewRedisStore(client, "test:"+uuid.NewString()+":")
	_, err = store.GetOrCreate(ctx, "+15550300")
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrStore))
}

// createAfterMiss runs create once, right after the first GET that misses.
type createAfterMiss struct {
	once   sync.Once
	create func(ctx context.Context)
}

func (h *createAfterMiss) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *createAfterMiss) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if cmd.Name() == "get" && errors.Is(err, redis.Nil) {
			h.once.Do(func() { h.create(ctx) })
		}
		return err
	}
}

func (h *createAfterMiss) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisStoreKeepsConcurrentlyCreatedSession(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	prefix := "test:" + uuid.NewString() + ":"

	other, err := storage.ConnectRedis(ctx, storage.RedisConfig{ConnectionURL: url})
	require.NoError(t, err)
	defer other.Close()
	winner := storage.NewRedisStore(other, prefix)

	client, err := storage.ConnectRedis(ctx, storage.RedisConfig{ConnectionURL: url})
	require.NoError(t, err)
	defer client.Close()
	client.AddHook(&createAfterMiss{create: func(ctx context.Context) {
		require.NoError(t, winner.Save(ctx, gate.NewSession("+15550310").MuteForever(t0)))
	}})
	store := storage.NewRedisStore(client, prefix)

	got, err := store.GetOrCreate(ctx, "+15550310")
	require.NoError(t, err)
	assert.True(t, got.PauseForever)
	assert.Equal(t, "+15550310", got.Identity)
}

package otp

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisStore connects to the redis instance named by VK_TEST_REDIS_URL,
// skipping the test when none is configured. These are integration tests; the
// backend-independent behavior is covered by the memory and gorm contracts.
func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	url := os.Getenv("VK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("VK_TEST_REDIS_URL not set, skipping redis integration tests")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		client.Close()
	})

	return NewRedisStore(client, nil)
}

func redisTestRecord(identity, recordID string) *Record {
	now := time.Now()
	return &Record{
		RecordID:    recordID,
		Identity:    identity,
		CodeHash:    HashCode("123456", "somesalt"),
		Salt:        "somesalt",
		CreatedAt:   now,
		ExpiresAt:   now.Add(10 * time.Minute),
		MaxAttempts: 3,
	}
}

func TestRedisStoreLifecycle(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()
	identity := "redis-test@example.com"

	t.Cleanup(func() {
		store.client.Del(ctx, redisKey(identity))
	})

	t.Run("GetLatest on unknown identity returns ErrRecordNotFound", func(t *testing.T) {
		_, err := store.GetLatest(ctx, "redis-missing@example.com")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("Save then GetLatest round-trips the record", func(t *testing.T) {
		saved := redisTestRecord(identity, "rec-1")
		require.NoError(t, store.Save(ctx, saved))

		record, err := store.GetLatest(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, "rec-1", record.RecordID)
		assert.Equal(t, saved.CodeHash, record.CodeHash)
	})

	t.Run("Update keeps the consumed record visible until expiry", func(t *testing.T) {
		record, err := store.GetLatest(ctx, identity)
		require.NoError(t, err)

		verifiedAt := time.Now()
		record.Used = true
		record.VerifiedAt = &verifiedAt
		require.NoError(t, store.Update(ctx, record))

		record, err = store.GetLatest(ctx, identity)
		require.NoError(t, err)
		assert.True(t, record.Used)

		ttl, err := store.client.TTL(ctx, redisKey(identity)).Result()
		require.NoError(t, err)
		assert.Positive(t, ttl)
	})

	t.Run("Update on a consumed record returns ErrRecordNotFound", func(t *testing.T) {
		record, err := store.GetLatest(ctx, identity)
		require.NoError(t, err)

		record.AttemptCount = 1
		assert.ErrorIs(t, store.Update(ctx, record), ErrRecordNotFound)
	})

	t.Run("InvalidateAll drops an unconsumed record", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, redisTestRecord(identity, "rec-2")))

		count, err := store.InvalidateAll(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		_, err = store.GetLatest(ctx, identity)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("Save rejects a record already past expiry", func(t *testing.T) {
		record := redisTestRecord(identity, "rec-3")
		record.ExpiresAt = time.Now().Add(-time.Minute)
		assert.Error(t, store.Save(ctx, record))
	})
}

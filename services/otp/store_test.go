package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verifykit/verifykit/testutils"
)

var storeTestBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func storeTestRecord(identity, recordID string, createdAt time.Time) *Record {
	return &Record{
		RecordID:    recordID,
		Identity:    identity,
		CodeHash:    HashCode("123456", "somesalt"),
		Salt:        "somesalt",
		CreatedAt:   createdAt,
		ExpiresAt:   createdAt.Add(10 * time.Minute),
		MaxAttempts: 3,
	}
}

// runStoreContractTests exercises the behaviors every Store backend must
// share, so durable and ephemeral implementations stay interchangeable.
func runStoreContractTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("GetLatest on unknown identity returns ErrRecordNotFound", func(t *testing.T) {
		store := newStore(t)

		record, err := store.GetLatest(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrRecordNotFound)
		assert.Nil(t, record)
	})

	t.Run("GetLatest returns the newest record", func(t *testing.T) {
		store := newStore(t)

		older := storeTestRecord("test@example.com", "rec-1", storeTestBase)
		require.NoError(t, store.Save(ctx, older))
		newer := storeTestRecord("test@example.com", "rec-2", storeTestBase.Add(time.Minute))
		require.NoError(t, store.Save(ctx, newer))

		record, err := store.GetLatest(ctx, "test@example.com")
		require.NoError(t, err)
		assert.Equal(t, "rec-2", record.RecordID)
	})

	t.Run("GetLatest does not hide used or expired records", func(t *testing.T) {
		store := newStore(t)

		stale := storeTestRecord("test@example.com", "rec-1", storeTestBase.Add(-time.Hour))
		stale.Used = true
		stale.AttemptCount = 3
		require.NoError(t, store.Save(ctx, stale))

		record, err := store.GetLatest(ctx, "test@example.com")
		require.NoError(t, err)
		assert.Equal(t, "rec-1", record.RecordID)
		assert.True(t, record.Used)
	})

	t.Run("identities do not see each other's records", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Save(ctx, storeTestRecord("a@example.com", "rec-a", storeTestBase)))

		record, err := store.GetLatest(ctx, "b@example.com")
		assert.ErrorIs(t, err, ErrRecordNotFound)
		assert.Nil(t, record)
	})

	t.Run("Update persists attempt count and consumption", func(t *testing.T) {
		store := newStore(t)

		saved := storeTestRecord("test@example.com", "rec-1", storeTestBase)
		require.NoError(t, store.Save(ctx, saved))

		record, err := store.GetLatest(ctx, "test@example.com")
		require.NoError(t, err)

		record.AttemptCount = 1
		require.NoError(t, store.Update(ctx, record))

		record, err = store.GetLatest(ctx, "test@example.com")
		require.NoError(t, err)
		assert.Equal(t, 1, record.AttemptCount)

		verifiedAt := storeTestBase.Add(time.Minute)
		record.Used = true
		record.VerifiedAt = &verifiedAt
		require.NoError(t, store.Update(ctx, record))

		record, err = store.GetLatest(ctx, "test@example.com")
		require.NoError(t, err)
		assert.True(t, record.Used)
		require.NotNil(t, record.VerifiedAt)
	})

	t.Run("Update on an already consumed record returns ErrRecordNotFound", func(t *testing.T) {
		store := newStore(t)

		saved := storeTestRecord("test@example.com", "rec-1", storeTestBase)
		require.NoError(t, store.Save(ctx, saved))

		first, err := store.GetLatest(ctx, "test@example.com")
		require.NoError(t, err)
		second, err := store.GetLatest(ctx, "test@example.com")
		require.NoError(t, err)

		first.Used = true
		require.NoError(t, store.Update(ctx, first))

		// A racing writer that loaded the record before it was consumed must
		// not be able to consume it again.
		second.Used = true
		assert.ErrorIs(t, store.Update(ctx, second), ErrRecordNotFound)
	})

	t.Run("Update on a missing record returns ErrRecordNotFound", func(t *testing.T) {
		store := newStore(t)

		ghost := storeTestRecord("test@example.com", "rec-ghost", storeTestBase)
		ghost.ID = 12345
		assert.ErrorIs(t, store.Update(ctx, ghost), ErrRecordNotFound)
	})

	t.Run("InvalidateAll leaves no usable record behind", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Save(ctx, storeTestRecord("test@example.com", "rec-1", storeTestBase)))

		count, err := store.InvalidateAll(ctx, "test@example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		record, err := store.GetLatest(ctx, "test@example.com")
		if err != nil {
			assert.ErrorIs(t, err, ErrRecordNotFound)
		} else {
			assert.True(t, record.Used)
		}
	})

	t.Run("InvalidateAll on an empty identity reports zero", func(t *testing.T) {
		store := newStore(t)

		count, err := store.InvalidateAll(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}

func TestGormStoreContract(t *testing.T) {
	runStoreContractTests(t, func(t *testing.T) Store {
		db := testutils.SetupTestDB(t, &Record{})
		return NewGormStore(db)
	})
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContractTests(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestGormStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	db := testutils.SetupTestDB(t, &Record{})
	store := NewGormStore(db)

	stale := storeTestRecord("old@example.com", "rec-old", storeTestBase.Add(-48*time.Hour))
	require.NoError(t, store.Save(ctx, stale))
	fresh := storeTestRecord("new@example.com", "rec-new", storeTestBase)
	require.NoError(t, store.Save(ctx, fresh))

	purged, err := store.PurgeExpired(ctx, storeTestBase.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = store.GetLatest(ctx, "old@example.com")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = store.GetLatest(ctx, "new@example.com")
	assert.NoError(t, err)
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	stale := storeTestRecord("old@example.com", "rec-old", storeTestBase.Add(-48*time.Hour))
	require.NoError(t, store.Save(ctx, stale))
	fresh := storeTestRecord("new@example.com", "rec-new", storeTestBase)
	require.NoError(t, store.Save(ctx, fresh))

	purged, err := store.PurgeExpired(ctx, storeTestBase.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = store.GetLatest(ctx, "old@example.com")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = store.GetLatest(ctx, "new@example.com")
	assert.NoError(t, err)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, storeTestRecord("test@example.com", "rec-1", storeTestBase)))

	record, err := store.GetLatest(ctx, "test@example.com")
	require.NoError(t, err)

	// Mutating the returned record must not leak into the store without an
	// explicit Update.
	record.AttemptCount = 99

	reloaded, err := store.GetLatest(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.AttemptCount)
}

func TestMemoryStoreHonorsContextCancellation(t *testing.T) {
	store := NewMemoryStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Save(ctx, storeTestRecord("test@example.com", "rec-1", storeTestBase)))

	_, err := store.GetLatest(ctx, "test@example.com")
	assert.Error(t, err)

	_, err = store.InvalidateAll(ctx, "test@example.com")
	assert.Error(t, err)

	_, err = store.PurgeExpired(ctx, storeTestBase)
	assert.Error(t, err)
}

package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/verifykit/verifykit/clock"
)

const redisKeyPrefix = "otp:"

// RedisStore is the TTL-based ephemeral backend. One key per identity holds
// the newest record as JSON with a TTL equal to its remaining validity, so
// redis evicts stale entries on its own and PurgeExpired is a no-op. A
// consumed record keeps its key (with TTL intact) until expiry, which lets
// replays of an already used code be recognised as such.
type RedisStore struct {
	client *redis.Client
	clock  clock.Clock
}

type redisRecord struct {
	RecordID     string     `json:"record_id"`
	Identity     string     `json:"identity"`
	CodeHash     string     `json:"code_hash"`
	Salt         string     `json:"salt"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	AttemptCount int        `json:"attempt_count"`
	MaxAttempts  int        `json:"max_attempts"`
	Used         bool       `json:"used"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
}

func NewRedisStore(client *redis.Client, clk clock.Clock) *RedisStore {
	if clk == nil {
		clk = clock.New()
	}
	return &RedisStore{
		client: client,
		clock:  clk,
	}
}

func redisKey(identity string) string {
	return redisKeyPrefix + identity
}

func (s *RedisStore) Save(ctx context.Context, record *Record) error {
	payload, err := json.Marshal(toRedisRecord(record))
	if err != nil {
		return fmt.Errorf("failed to encode verification record: %w", err)
	}

	ttl := record.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return fmt.Errorf("verification record already expired at save time")
	}

	if err := s.client.Set(ctx, redisKey(record.Identity), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save verification record: %w", err)
	}

	return nil
}

func (s *RedisStore) GetLatest(ctx context.Context, identity string) (*Record, error) {
	payload, err := s.client.Get(ctx, redisKey(identity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load verification record: %w", err)
	}

	var stored redisRecord
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode verification record: %w", err)
	}

	return fromRedisRecord(&stored), nil
}

func (s *RedisStore) Update(ctx context.Context, record *Record) error {
	key := redisKey(record.Identity)

	// WATCH guards the read-modify-write: if the key changes between load
	// and write the transaction aborts instead of clobbering a concurrent
	// mutation.
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrRecordNotFound
			}
			return err
		}

		var stored redisRecord
		if err := json.Unmarshal(payload, &stored); err != nil {
			return fmt.Errorf("failed to decode verification record: %w", err)
		}
		if stored.RecordID != record.RecordID || stored.Used {
			return ErrRecordNotFound
		}

		stored.AttemptCount = record.AttemptCount
		stored.Used = record.Used
		stored.VerifiedAt = record.VerifiedAt

		updated, err := json.Marshal(&stored)
		if err != nil {
			return fmt.Errorf("failed to encode verification record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}, key)

	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("failed to update verification record: %w", err)
	}

	return nil
}

func (s *RedisStore) InvalidateAll(ctx context.Context, identity string) (int64, error) {
	key := redisKey(identity)

	var count int64
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return err
		}

		var stored redisRecord
		if err := json.Unmarshal(payload, &stored); err != nil {
			return fmt.Errorf("failed to decode verification record: %w", err)
		}
		if stored.Used {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err == nil {
			count = 1
		}
		return err
	}, key)

	if err != nil {
		return 0, fmt.Errorf("failed to invalidate verification records: %w", err)
	}

	return count, nil
}

// PurgeExpired is a no-op: every key carries a TTL and redis evicts it.
func (s *RedisStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func toRedisRecord(record *Record) *redisRecord {
	return &redisRecord{
		RecordID:     record.RecordID,
		Identity:     record.Identity,
		CodeHash:     record.CodeHash,
		Salt:         record.Salt,
		CreatedAt:    record.CreatedAt,
		ExpiresAt:    record.ExpiresAt,
		AttemptCount: record.AttemptCount,
		MaxAttempts:  record.MaxAttempts,
		Used:         record.Used,
		VerifiedAt:   record.VerifiedAt,
	}
}

func fromRedisRecord(stored *redisRecord) *Record {
	return &Record{
		RecordID:     stored.RecordID,
		Identity:     stored.Identity,
		CodeHash:     stored.CodeHash,
		Salt:         stored.Salt,
		CreatedAt:    stored.CreatedAt,
		ExpiresAt:    stored.ExpiresAt,
		AttemptCount: stored.AttemptCount,
		MaxAttempts:  stored.MaxAttempts,
		Used:         stored.Used,
		VerifiedAt:   stored.VerifiedAt,
	}
}

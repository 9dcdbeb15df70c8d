package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormStore is the durable Store backend. Update and InvalidateAll are
// guarded so a raced attempt increment wastes at most one attempt slot and a
// used record can never be verified a second time.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

func (s *GormStore) Save(ctx context.Context, record *Record) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save verification record: %w", err)
	}
	return nil
}

func (s *GormStore) GetLatest(ctx context.Context, identity string) (*Record, error) {
	var record Record
	err := s.db.WithContext(ctx).
		Where("identity = ?", identity).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load verification record: %w", err)
	}

	return &record, nil
}

func (s *GormStore) Update(ctx context.Context, record *Record) error {
	// Guard on used = false so a record that was concurrently consumed or
	// invalidated cannot be written over.
	result := s.db.WithContext(ctx).
		Model(&Record{}).
		Where("id = ? AND used = ?", record.ID, false).
		Updates(map[string]any{
			"attempt_count": record.AttemptCount,
			"used":          record.Used,
			"verified_at":   record.VerifiedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update verification record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (s *GormStore) InvalidateAll(ctx context.Context, identity string) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&Record{}).
		Where("identity = ? AND used = ?", identity, false).
		Update("used", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to invalidate verification records: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (s *GormStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&Record{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge expired verification records: %w", result.Error)
	}

	return result.RowsAffected, nil
}

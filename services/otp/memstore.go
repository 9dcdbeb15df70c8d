package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the reference ephemeral backend: a mutex-guarded map keyed
// by identity. Suitable for tests and single-process deployments; stale
// entries are reclaimed by PurgeExpired.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]*Record
	nextID  uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]*Record),
	}
}

func (s *MemoryStore) Save(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	record.ID = s.nextID

	stored := *record
	s.records[record.Identity] = append(s.records[record.Identity], &stored)

	return nil
}

func (s *MemoryStore) GetLatest(ctx context.Context, identity string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest *Record
	for _, record := range s.records[identity] {
		if newest == nil || record.ID > newest.ID {
			newest = record
		}
	}

	if newest == nil {
		return nil, ErrRecordNotFound
	}

	copied := *newest
	return &copied, nil
}

func (s *MemoryStore) Update(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stored := range s.records[record.Identity] {
		if stored.RecordID != record.RecordID {
			continue
		}
		if stored.Used {
			return ErrRecordNotFound
		}

		stored.AttemptCount = record.AttemptCount
		stored.Used = record.Used
		stored.VerifiedAt = record.VerifiedAt
		return nil
	}

	return ErrRecordNotFound
}

func (s *MemoryStore) InvalidateAll(ctx context.Context, identity string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, record := range s.records[identity] {
		if !record.Used {
			record.Used = true
			count++
		}
	}

	return count, nil
}

func (s *MemoryStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for identity, records := range s.records {
		kept := records[:0]
		for _, record := range records {
			if record.ExpiresAt.Before(before) {
				count++
				continue
			}
			kept = append(kept, record)
		}
		if len(kept) == 0 {
			delete(s.records, identity)
		} else {
			s.records[identity] = kept
		}
	}

	return count, nil
}

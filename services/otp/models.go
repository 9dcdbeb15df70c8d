package otp

import (
	"time"
)

// Record is one outstanding verification challenge for one identity. Only a
// salted digest of the code is ever stored; the plaintext exists solely in
// the return value of Generate.
type Record struct {
	ID           uint       `json:"id" gorm:"primarykey"`
	RecordID     string     `json:"record_id" gorm:"size:36;index;not null"`
	Identity     string     `json:"identity" gorm:"index;not null"`
	CodeHash     string     `json:"-" gorm:"size:64;not null"`
	Salt         string     `json:"-" gorm:"size:64;not null"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at" gorm:"index;not null"`
	AttemptCount int        `json:"attempt_count" gorm:"not null;default:0"`
	MaxAttempts  int        `json:"max_attempts" gorm:"not null;default:3"`
	Used         bool       `json:"used" gorm:"not null;default:false"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
}

func (Record) TableName() string {
	return "otp_records"
}

func (r *Record) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

func (r *Record) IsExhausted() bool {
	return r.AttemptCount >= r.MaxAttempts
}

// IsActive reports whether the record can still accept a verification
// attempt: not used, attempt budget left, not expired.
func (r *Record) IsActive(now time.Time) bool {
	return !r.Used && !r.IsExhausted() && !r.IsExpired(now)
}

func (r *Record) RemainingAttempts() int {
	remaining := r.MaxAttempts - r.AttemptCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

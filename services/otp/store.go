package otp

import (
	"context"
	"errors"
	"time"
)

// ErrRecordNotFound is returned by GetLatest when the identity has no
// record at all, and by Update when the target record no longer accepts
// writes (deleted, expired out of the backend, or already used).
var ErrRecordNotFound = errors.New("no verification record found")

// Store is the contract an OTP storage backend must satisfy. Durable and
// TTL-based ephemeral backends are interchangeable behind it. Every method
// must be atomic with respect to a single identity.
type Store interface {
	// Save persists a new record. Callers are expected to invalidate prior
	// records first; Save itself enforces no uniqueness.
	Save(ctx context.Context, record *Record) error

	// GetLatest returns the most recently created record for the identity,
	// whatever its state, or ErrRecordNotFound. Classifying the record as
	// usable, expired, exhausted or used is the engine's job; backends with
	// native expiry must not be trusted to have done it.
	GetLatest(ctx context.Context, identity string) (*Record, error)

	// Update persists mutations to an existing record (attempt count, used
	// flag, verified timestamp). It must not resurrect a deleted or used
	// record; a lost guard returns ErrRecordNotFound.
	Update(ctx context.Context, record *Record) error

	// InvalidateAll marks every non-used record for the identity as used (or
	// removes it) and reports how many were affected. After it returns, no
	// two records may be simultaneously active for the identity.
	InvalidateAll(ctx context.Context, identity string) (int64, error)

	// PurgeExpired removes records whose expiry predates before. Maintenance
	// only; never on the verification hot path. Backends that expire keys
	// natively may treat this as a no-op.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

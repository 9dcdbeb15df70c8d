package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/verifykit/verifykit/clock"
	"github.com/verifykit/verifykit/config"
	"github.com/verifykit/verifykit/services/logging"
	"go.uber.org/zap"
)

var (
	ErrIdentityRequired    = errors.New("identity is required")
	ErrStoreRequired       = errors.New("storage backend is required")
	ErrSenderNotConfigured = errors.New("delivery sender is not configured")
)

// Sender delivers a plaintext code to an identity. Implementations must
// never log the code.
type Sender interface {
	SendCode(ctx context.Context, identity, code string) error
}

// Service owns the OTP lifecycle: generation, verification and the
// expiry/attempt/single-use policy. It is stateless between calls; all
// mutable state lives behind the Store.
type Service struct {
	config *config.Config
	store  Store
	clock  clock.Clock
	sender Sender
	logger *logging.Service
}

func NewService(cfg *config.Config, store Store, clk clock.Clock, logger *logging.Service) *Service {
	if clk == nil {
		clk = clock.New()
	}

	if cfg.OTP.CodeDigits <= 0 {
		cfg.OTP.CodeDigits = DefaultCodeDigits
	}
	if cfg.OTP.SaltLength < minSaltLength {
		cfg.OTP.SaltLength = DefaultSaltLength
	}
	if cfg.OTP.MaxAttempts <= 0 {
		cfg.OTP.MaxAttempts = 3
	}

	return &Service{
		config: cfg,
		store:  store,
		clock:  clk,
		logger: logger,
	}
}

func (s *Service) SetSender(sender Sender) {
	s.sender = sender
}

// NormalizeIdentity canonicalizes an identity the same way for generation
// and verification: surrounding whitespace stripped, case folded.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// Generate invalidates every prior record for the identity, creates a fresh
// one and returns the plaintext code. The engine keeps no recoverable copy
// of the plaintext; only the salted hash is persisted. Delivery is the
// caller's responsibility.
func (s *Service) Generate(ctx context.Context, identity string) (string, *Record, error) {
	identity = NormalizeIdentity(identity)
	if identity == "" {
		return "", nil, ErrIdentityRequired
	}
	if s.store == nil {
		return "", nil, ErrStoreRequired
	}

	invalidated, err := s.store.InvalidateAll(ctx, identity)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to invalidate prior verification records",
				zap.String("identity", MaskIdentity(identity)),
				zap.Error(err))
		}
		return "", nil, fmt.Errorf("failed to invalidate prior records: %w", err)
	}

	code, err := GenerateCode(s.config.OTP.CodeDigits)
	if err != nil {
		return "", nil, err
	}

	salt, err := GenerateSalt(s.config.OTP.SaltLength)
	if err != nil {
		return "", nil, err
	}

	now := s.clock.Now()
	record := &Record{
		RecordID:    uuid.NewString(),
		Identity:    identity,
		CodeHash:    HashCode(code, salt),
		Salt:        salt,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.config.OTP.Expiry),
		MaxAttempts: s.config.OTP.MaxAttempts,
	}

	if err := s.store.Save(ctx, record); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to save verification record",
				zap.String("identity", MaskIdentity(identity)),
				zap.String("record_id", record.RecordID),
				zap.Error(err))
		}
		return "", nil, err
	}

	if s.logger != nil {
		s.logger.Info("verification code generated",
			zap.String("identity", MaskIdentity(identity)),
			zap.String("record_id", record.RecordID),
			zap.Int64("invalidated", invalidated),
			zap.Time("expires_at", record.ExpiresAt))
	}

	return code, record, nil
}

// Verify evaluates a candidate code against the identity's newest record.
// Policy failures come back as a Result; only backend faults return a
// non-nil error, so callers never mistake a storage outage for a wrong code.
func (s *Service) Verify(ctx context.Context, identity, candidate string) (Result, error) {
	identity = NormalizeIdentity(identity)
	if identity == "" {
		return Result{}, ErrIdentityRequired
	}
	if s.store == nil {
		return Result{}, ErrStoreRequired
	}

	record, err := s.store.GetLatest(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			s.logOutcome(identity, "", OutcomeNotFound)
			return Result{Outcome: OutcomeNotFound}, nil
		}
		if s.logger != nil {
			s.logger.Error("failed to load verification record",
				zap.String("identity", MaskIdentity(identity)),
				zap.Error(err))
		}
		return Result{}, err
	}

	now := s.clock.Now()

	// Terminal states are classified here, not by the backend, so an
	// expired, exhausted or consumed record reports its precise state.
	// None of these checks consumes an attempt.
	if record.IsExpired(now) {
		s.logOutcome(identity, record.RecordID, OutcomeExpired)
		return Result{Outcome: OutcomeExpired}, nil
	}
	if record.IsExhausted() {
		s.logOutcome(identity, record.RecordID, OutcomeAttemptsExhausted)
		return Result{Outcome: OutcomeAttemptsExhausted}, nil
	}
	if record.Used {
		s.logOutcome(identity, record.RecordID, OutcomeAlreadyUsed)
		return Result{Outcome: OutcomeAlreadyUsed}, nil
	}

	if !ConstantTimeEquals(HashCode(candidate, record.Salt), record.CodeHash) {
		record.AttemptCount++
		if err := s.store.Update(ctx, record); err != nil && !errors.Is(err, ErrRecordNotFound) {
			return Result{}, err
		}

		s.logOutcome(identity, record.RecordID, OutcomeInvalidCode)
		return Result{
			Outcome:           OutcomeInvalidCode,
			RemainingAttempts: record.RemainingAttempts(),
		}, nil
	}

	record.Used = true
	record.VerifiedAt = &now
	if err := s.store.Update(ctx, record); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			// Lost the write race: another call consumed or invalidated the
			// record first. Never report two successes for one code.
			s.logOutcome(identity, record.RecordID, OutcomeAlreadyUsed)
			return Result{Outcome: OutcomeAlreadyUsed}, nil
		}
		return Result{}, err
	}

	s.logOutcome(identity, record.RecordID, OutcomeSuccess)
	return Result{Outcome: OutcomeSuccess}, nil
}

// GenerateAndSend generates a code and hands it to the configured sender.
// A delivery failure is logged but reported as success so callers cannot be
// used to probe which identities exist.
func (s *Service) GenerateAndSend(ctx context.Context, identity string) error {
	if s.sender == nil {
		return ErrSenderNotConfigured
	}

	code, record, err := s.Generate(ctx, identity)
	if err != nil {
		return err
	}

	if err := s.sender.SendCode(ctx, record.Identity, code); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to deliver verification code",
				zap.String("identity", MaskIdentity(record.Identity)),
				zap.String("record_id", record.RecordID),
				zap.Error(err))
		}
	}

	return nil
}

// PurgeExpired removes records past expiry plus the configured retention
// grace. Intended for an external scheduler, not the request path.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	if s.store == nil {
		return 0, ErrStoreRequired
	}

	before := s.clock.Now().Add(-s.config.OTP.RetentionGrace)
	purged, err := s.store.PurgeExpired(ctx, before)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to purge expired verification records", zap.Error(err))
		}
		return 0, err
	}

	if s.logger != nil && purged > 0 {
		s.logger.Info("expired verification records purged",
			zap.Int64("purged", purged),
			zap.Time("before", before))
	}

	return purged, nil
}

func (s *Service) logOutcome(identity, recordID string, outcome Outcome) {
	if s.logger == nil {
		return
	}

	fields := []zap.Field{
		zap.String("identity", MaskIdentity(identity)),
		zap.String("outcome", outcome.String()),
	}
	if recordID != "" {
		fields = append(fields, zap.String("record_id", recordID))
	}

	if outcome == OutcomeSuccess {
		s.logger.Info("verification attempt", fields...)
	} else {
		s.logger.Warn("verification attempt", fields...)
	}
}

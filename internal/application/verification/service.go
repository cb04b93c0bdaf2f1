package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/runease-api/internal/domain"
	"github.com/runease-api/internal/infrastructure/smtp"
	"github.com/runease-api/internal/metrics"
	"github.com/runease-api/internal/pkg/emailaddr"
	"github.com/runease-api/internal/pkg/otp"
)

// UserStore is the persistence the verification flow needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// SetOTP stores the code only while the account is unverified; otherwise it
	// returns domain.ErrConflict.
	SetOTP(ctx context.Context, userID, code string, expiry time.Time) error
	// ConsumeOTP sets is_verified and clears the code only while the stored
	// code still equals code; otherwise it returns domain.ErrInvalidCode.
	ConsumeOTP(ctx context.Context, userID, code string) error
}

// Cooldown throttles issuance per email. Optional.
type Cooldown interface {
	Acquire(ctx context.Context, email string, window time.Duration) (bool, error)
	Release(ctx context.Context, email string) error
	Remaining(ctx context.Context, email string) (time.Duration, error)
}

type Service interface {
	// IssueCode generates, stores and emails a fresh code for email.
	IssueCode(ctx context.Context, email string) error
	// VerifyCode checks code against the stored one and marks the account verified.
	VerifyCode(ctx context.Context, email, code string) error
}

type ServiceDeps struct {
	Users          UserStore
	Mailer         smtp.Mailer
	Cooldown       Cooldown
	TTL            time.Duration
	ResendCooldown time.Duration
	Logger         zerolog.Logger
	Now            func() time.Time
	NewCode        func() (string, error)
}

type service struct {
	users          UserStore
	mailer         smtp.Mailer
	cooldown       Cooldown
	ttl            time.Duration
	resendCooldown time.Duration
	lg             zerolog.Logger
	now            func() time.Time
	newCode        func() (string, error)
}

func NewService(d ServiceDeps) Service {
	s := &service{
		users:          d.Users,
		mailer:         d.Mailer,
		cooldown:       d.Cooldown,
		ttl:            d.TTL,
		resendCooldown: d.ResendCooldown,
		lg:             d.Logger.With().Str("component", "verification").Logger(),
		now:            d.Now,
		newCode:        d.NewCode,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newCode == nil {
		s.newCode = otp.NewCode
	}
	return s
}

func (s *service) IssueCode(ctx context.Context, email string) error {
	email, err := checkEmail(email)
	if err != nil {
		return err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return s.lookupError(err, email)
	}
	if u.IsVerified {
		return fmt.Errorf("account already verified: %w", domain.ErrConflict)
	}

	if s.cooldown != nil && s.resendCooldown > 0 {
		ok, err := s.cooldown.Acquire(ctx, email, s.resendCooldown)
		if err != nil {
			s.lg.Warn().Err(err).Msg("cooldown unavailable, issuing without throttle")
		} else if !ok {
			return s.tooSoon(ctx, email)
		}
	}

	code, err := s.newCode()
	if err != nil {
		s.releaseCooldown(ctx, email)
		return err
	}
	expiry := s.now().UTC().Add(s.ttl)
	if err := s.users.SetOTP(ctx, u.UserID, code, expiry); err != nil {
		s.releaseCooldown(ctx, email)
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("email verified meanwhile: %w", domain.ErrConflict)
		}
		s.lg.Error().Err(err).Str("user_id", u.UserID).Msg("failed to store verification code")
		return fmt.Errorf("store code: %w", err)
	}
	metrics.RecordCodeIssued()
	s.lg.Info().Str("user_id", u.UserID).Time("expires_at", expiry).Msg("verification code stored")

	err = s.mailer.SendVerificationCode(ctx, smtp.VerificationEmail{
		To:       u.Email,
		Username: u.Username,
		Code:     code,
		ValidFor: s.ttl,
	})
	if err != nil {
		// The stored code was never delivered; let the user ask again right away.
		s.releaseCooldown(ctx, email)
		s.lg.Error().Err(err).Str("user_id", u.UserID).Msg("verification email not delivered")
		return fmt.Errorf("send verification email: %v: %w", err, domain.ErrDelivery)
	}
	return nil
}

func (s *service) VerifyCode(ctx context.Context, email, code string) error {
	email, err := checkEmail(email)
	if err != nil {
		metrics.RecordVerify(metrics.OutcomeRejected)
		return err
	}
	if !domain.IsCode(code) {
		metrics.RecordVerify(metrics.OutcomeRejected)
		return fmt.Errorf("code must be exactly 6 digits: %w", domain.ErrValidation)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.RecordVerify(metrics.OutcomeNotFound)
		} else {
			metrics.RecordVerify(metrics.OutcomeError)
		}
		return s.lookupError(err, email)
	}
	if u.IsVerified || !u.HasPendingCode() {
		metrics.RecordVerify(metrics.OutcomeNotFound)
		return fmt.Errorf("no pending verification code: %w", domain.ErrNotFound)
	}
	if !otp.Equal(*u.OTPCode, code) {
		metrics.RecordVerify(metrics.OutcomeInvalidCode)
		return fmt.Errorf("code does not match: %w", domain.ErrInvalidCode)
	}
	// The expiry instant itself is still valid.
	if s.now().After(*u.OTPExpiry) {
		metrics.RecordVerify(metrics.OutcomeExpired)
		return fmt.Errorf("code expired at %s: %w", u.OTPExpiry.UTC().Format(time.RFC3339), domain.ErrExpired)
	}

	if err := s.users.ConsumeOTP(ctx, u.UserID, code); err != nil {
		if errors.Is(err, domain.ErrInvalidCode) {
			return s.resolveLostRace(ctx, email, err)
		}
		metrics.RecordVerify(metrics.OutcomeError)
		s.lg.Error().Err(err).Str("user_id", u.UserID).Msg("failed to mark user verified")
		return fmt.Errorf("mark verified: %w", err)
	}
	metrics.RecordVerify(metrics.OutcomeVerified)
	s.lg.Info().Str("user_id", u.UserID).Msg("email verified")
	return nil
}

// resolveLostRace runs when the guarded update found a different code. A
// parallel submit of the same code already verified the account; anything
// else means a resend replaced the code.
func (s *service) resolveLostRace(ctx context.Context, email string, cause error) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err == nil && u.IsVerified {
		metrics.RecordVerify(metrics.OutcomeVerified)
		return nil
	}
	metrics.RecordVerify(metrics.OutcomeInvalidCode)
	return cause
}

func (s *service) lookupError(err error, email string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("email %s is not registered: %w", email, domain.ErrNotFound)
	}
	s.lg.Error().Err(err).Msg("user lookup failed")
	return fmt.Errorf("lookup user: %w", err)
}

func (s *service) tooSoon(ctx context.Context, email string) error {
	left, err := s.cooldown.Remaining(ctx, email)
	if err != nil || left <= 0 {
		return fmt.Errorf("a code was sent recently, wait before requesting another: %w", domain.ErrTooManyRequests)
	}
	secs := int((left + time.Second - 1) / time.Second)
	return fmt.Errorf("a code was sent recently, try again in %ds: %w", secs, domain.ErrTooManyRequests)
}

func (s *service) releaseCooldown(ctx context.Context, email string) {
	if s.cooldown == nil || s.resendCooldown <= 0 {
		return
	}
	if err := s.cooldown.Release(ctx, email); err != nil {
		s.lg.Warn().Err(err).Msg("failed to release cooldown")
	}
}

func checkEmail(email string) (string, error) {
	email = emailaddr.Normalize(email)
	if email == "" {
		return "", fmt.Errorf("email is required: %w", domain.ErrValidation)
	}
	if !emailaddr.Valid(email) {
		return "", fmt.Errorf("email format is invalid: %w", domain.ErrValidation)
	}
	return email, nil
}

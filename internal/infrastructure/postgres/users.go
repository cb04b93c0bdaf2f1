package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/runease-api/internal/domain"
)

const userColumns = `id, username, email, password_hash, gender, role,
	otp_code, otp_expiry, is_verified, created_at, updated_at`

// UserRepo stores users in the users table.
type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.UserID, u.Username, u.Email, u.PasswordHash, u.Gender, u.Role,
		u.OTPCode, u.OTPExpiry, u.IsVerified, u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("username or email already registered: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return r.getBy(ctx, "id", userID)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "username", username)
}

// SetOTP stores a new code/expiry pair, replacing any outstanding one. The
// update only lands while the account is unverified.
func (r *UserRepo) SetOTP(ctx context.Context, userID, code string, expiry time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET otp_code = $2, otp_expiry = $3, updated_at = now()
		WHERE id = $1 AND is_verified = FALSE`, userID, code, expiry.UTC())
	if err != nil {
		return fmt.Errorf("set otp: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var verified bool
	err = r.db.QueryRow(ctx, `SELECT is_verified FROM users WHERE id = $1`, userID).Scan(&verified)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("user %s disappeared: %w", userID, domain.ErrNotFound)
	case err != nil:
		return fmt.Errorf("set otp: %w", err)
	default:
		return fmt.Errorf("user %s already verified: %w", userID, domain.ErrConflict)
	}
}

// ConsumeOTP marks the user verified and clears the code. The update only
// lands while otp_code still equals code.
func (r *UserRepo) ConsumeOTP(ctx context.Context, userID, code string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET is_verified = TRUE, otp_code = NULL, otp_expiry = NULL, updated_at = now()
		WHERE id = $1 AND otp_code = $2`, userID, code)
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stored code changed: %w", domain.ErrInvalidCode)
	}
	return nil
}

// column is one of the fixed identifiers above, never user input.
func (r *UserRepo) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	var u domain.User
	err := row.Scan(
		&u.UserID, &u.Username, &u.Email, &u.PasswordHash, &u.Gender, &u.Role,
		&u.OTPCode, &u.OTPExpiry, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return &u, nil
}

package domain

import (
	"fmt"
	"regexp"
	"time"
)

// Roles a RunEase account can hold.
const (
	RoleCoach   = "coach"
	RoleAthlete = "athlete"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

// User is one account row. OTPCode and OTPExpiry are set and cleared together.
type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Username     string     `json:"username" dynamodbav:"username"`
	Email        string     `json:"email" dynamodbav:"email"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Gender       string     `json:"gender" dynamodbav:"gender"`
	Role         string     `json:"role" dynamodbav:"role"`
	OTPCode      *string    `json:"-" dynamodbav:"otp_code,omitempty"`
	OTPExpiry    *time.Time `json:"-" dynamodbav:"otp_expiry,omitempty"`
	IsVerified   bool       `json:"is_verified" dynamodbav:"is_verified"`
	CreatedAt    time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

// HasPendingCode reports whether a code is outstanding for this account.
func (u *User) HasPendingCode() bool {
	return u.OTPCode != nil && u.OTPExpiry != nil
}

// Validate checks a row read from storage before it reaches service logic.
func (u *User) Validate() error {
	if u.UserID == "" || u.Email == "" {
		return fmt.Errorf("user row without id or email: %w", ErrCorruptRecord)
	}
	if (u.OTPCode == nil) != (u.OTPExpiry == nil) {
		return fmt.Errorf("user %s has otp_code and otp_expiry out of step: %w", u.UserID, ErrCorruptRecord)
	}
	if u.OTPCode != nil && !codePattern.MatchString(*u.OTPCode) {
		return fmt.Errorf("user %s has a malformed otp_code: %w", u.UserID, ErrCorruptRecord)
	}
	return nil
}

// IsCode reports whether s is a six digit numeric code.
func IsCode(s string) bool {
	return codePattern.MatchString(s)
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Gender   string `json:"gender" validate:"required,oneof=male female"`
	Role     string `json:"role" validate:"required,oneof=coach athlete"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SendCodeRequest struct {
	Email string `json:"email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrExpired         = errors.New("verification code expired")
	ErrDelivery        = errors.New("email delivery failed")
	ErrTooManyRequests = errors.New("too many requests")
	ErrCorruptRecord   = errors.New("corrupt record")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnverified         = errors.New("email not verified")
)

// Machine readable reasons carried in the "code" field of error responses.
var reasons = []struct {
	err  error
	code string
}{
	{ErrValidation, "validation_failed"},
	{ErrNotFound, "not_found"},
	{ErrConflict, "conflict"},
	{ErrInvalidCode, "invalid_code"},
	{ErrExpired, "expired"},
	{ErrDelivery, "delivery_failed"},
	{ErrTooManyRequests, "rate_limited"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrUnverified, "email_unverified"},
}

// ReasonCode returns the stable reason for err, or "internal" when err wraps
// none of the sentinels above.
func ReasonCode(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return "internal"
}

// ErrorForReason is the inverse of ReasonCode. It returns nil for unknown reasons.
func ErrorForReason(code string) error {
	for _, r := range reasons {
		if r.code == code {
			return r.err
		}
	}
	return nil
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode"

	"github.com/runease-api/internal/domain"
)

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

type Issuer interface {
	IssueCode(ctx context.Context, email string) error
}

type Verifier interface {
	VerifyCode(ctx context.Context, email, code string) error
}

// Workflow drives one user's code entry screen: digits typed so far, the
// resend countdown and the calls to the verification service.
type Workflow struct {
	mu        sync.Mutex
	email     string
	input     []rune
	verified  bool
	resendNow bool // set when the last code never reached the inbox or expired

	countdown *Countdown
	issuer    Issuer
	verifier  Verifier
}

// New starts a workflow for email. Call Start to request the first code, or
// skip it when a code was already sent.
func New(email string, window time.Duration, issuer Issuer, verifier Verifier) *Workflow {
	return &Workflow{
		email:     email,
		countdown: NewCountdown(window),
		issuer:    issuer,
		verifier:  verifier,
	}
}

func (w *Workflow) Email() string { return w.email }

func (w *Workflow) Countdown() *Countdown { return w.countdown }

// Enter appends one digit to the input.
func (w *Workflow) Enter(r rune) error {
	if r > unicode.MaxASCII || !unicode.IsDigit(r) {
		return fmt.Errorf("%q is not a digit: %w", r, domain.ErrValidation)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.input) >= CodeLength {
		return fmt.Errorf("code already has %d digits: %w", CodeLength, domain.ErrValidation)
	}
	w.input = append(w.input, r)
	return nil
}

// Backspace removes the last digit, if any.
func (w *Workflow) Backspace() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.input) > 0 {
		w.input = w.input[:len(w.input)-1]
	}
}

// SetCode replaces the input with the digits of s, as when pasting.
func (w *Workflow) SetCode(s string) {
	var digits []rune
	for _, r := range s {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) && len(digits) < CodeLength {
			digits = append(digits, r)
		}
	}
	w.mu.Lock()
	w.input = digits
	w.mu.Unlock()
}

func (w *Workflow) Code() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.input)
}

func (w *Workflow) Verified() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.verified
}

// CanResend reports whether Resend would call the service.
func (w *Workflow) CanResend() bool {
	w.mu.Lock()
	override := w.resendNow
	w.mu.Unlock()
	return override || w.countdown.CanResend()
}

// Submit sends the entered code for verification. The countdown is not
// consulted; the server decides whether the code has expired.
func (w *Workflow) Submit(ctx context.Context) error {
	if w.Verified() {
		return nil
	}
	code := w.Code()
	if !domain.IsCode(code) {
		return fmt.Errorf("enter all %d digits: %w", CodeLength, domain.ErrValidation)
	}
	err := w.verifier.VerifyCode(ctx, w.email, code)

	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case err == nil:
		w.verified = true
		w.input = nil
	case errors.Is(err, domain.ErrExpired):
		w.resendNow = true
	}
	return err
}

// Resend asks for a new code once the countdown is over, or immediately
// after a failed delivery or an expired code.
func (w *Workflow) Resend(ctx context.Context) error {
	if w.Verified() {
		return fmt.Errorf("email already verified: %w", domain.ErrConflict)
	}
	if !w.CanResend() {
		left := w.countdown.Remaining()
		return fmt.Errorf("resend available in %ds: %w", int(left.Seconds()), domain.ErrTooManyRequests)
	}
	return w.issue(ctx)
}

// Start requests the first code. A failed delivery leaves resend open
// immediately instead of waiting out the countdown.
func (w *Workflow) Start(ctx context.Context) error {
	if w.Verified() {
		return fmt.Errorf("email already verified: %w", domain.ErrConflict)
	}
	return w.issue(ctx)
}

func (w *Workflow) issue(ctx context.Context) error {
	err := w.issuer.IssueCode(ctx, w.email)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		if errors.Is(err, domain.ErrDelivery) {
			w.resendNow = true
		}
		return err
	}
	w.resendNow = false
	w.input = nil
	w.countdown.Reset()
	return nil
}

// Message turns a workflow or service error into text for the user.
func Message(err error) string {
	switch {
	case err == nil:
		return "Email verified."
	case errors.Is(err, domain.ErrValidation):
		return fmt.Sprintf("Enter the %d-digit code from the email.", CodeLength)
	case errors.Is(err, domain.ErrNotFound):
		return "No pending code for this email. Request a new one."
	case errors.Is(err, domain.ErrInvalidCode):
		return "That code is not correct. Try again."
	case errors.Is(err, domain.ErrExpired):
		return "That code has expired. Request a new one."
	case errors.Is(err, domain.ErrDelivery):
		return "We could not send the email. You can request a new code now."
	case errors.Is(err, domain.ErrTooManyRequests):
		return "Please wait before requesting another code."
	case errors.Is(err, domain.ErrConflict):
		return "This email is already verified."
	default:
		return "Something went wrong. Please try again."
	}
}

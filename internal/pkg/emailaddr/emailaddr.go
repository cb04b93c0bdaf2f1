// Package emailaddr normalizes and checks email addresses at the service boundary.
// Addresses are trimmed and lower-cased before every lookup and before storage,
// so lookups are case-insensitive everywhere.
package emailaddr

import (
	"strings"

	"github.com/runease-api/internal/pkg/validate"
)

// Normalize trims surrounding whitespace and lower-cases the address.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Valid reports whether email passes the same check as the "email" struct tag
// used on request bodies.
func Valid(email string) bool {
	return validate.Var(email, "required,email") == nil
}

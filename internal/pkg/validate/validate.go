package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/runease-api/internal/domain"
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

// Struct validates the given struct using its validate tags.
// Returns an error wrapping domain.ErrValidation with a human-readable message, or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrValidation)
	}
	return nil
}

// Var validates a single value against tag, e.g. Var(email, "required,email").
func Var(value interface{}, tag string) error {
	if err := v.Var(value, tag); err != nil {
		return fmt.Errorf("value failed '%s': %w", tag, domain.ErrValidation)
	}
	return nil
}

package emailaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "alice@example.com", Normalize("  Alice@Example.COM "))
}

func TestValid(t *testing.T) {
	for _, ok := range []string{"alice@example.com", "a.b+c@sub.domain.io"} {
		assert.True(t, Valid(ok), ok)
	}
	for _, bad := range []string{"", "alice", "alice@", "alice@example", "al ice@example.com", "@example.com"} {
		assert.False(t, Valid(bad), bad)
	}
}

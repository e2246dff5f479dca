package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewConfirmationToken mints a random 128-bit confirmation token for a
// reservation. Tokens are not derived from row ids so they cannot be
// enumerated; the unique index on reservations.confirmation_token keeps
// them from ever being reused.
func NewConfirmationToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewPublicCode builds a short human-facing code with a prefix,
// e.g. "RSV-3f9a21c0".
func NewPublicCode(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

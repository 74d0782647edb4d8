package auth

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// ResetTokenGenerator generates password reset tokens. Unlike the default
// ULID generator it does not use monotonic entropy, so tokens issued in the
// same millisecond cannot be derived from one another.
type ResetTokenGenerator struct{}

// NewResetTokenGenerator creates a new ResetTokenGenerator.
func NewResetTokenGenerator() *ResetTokenGenerator {
	return &ResetTokenGenerator{}
}

// Generate returns a new reset token.
func (ResetTokenGenerator) Generate() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

package usecase

import "time"

const (
	// DefaultTransactionTimeout caps every write transaction.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long a replayable POST response is kept.
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultPasswordResetTTL is how long a password reset token stays valid.
	DefaultPasswordResetTTL = time.Hour

	// DefaultSessionTTL is the bearer token lifetime assumed when none is
	// configured.
	DefaultSessionTTL = 24 * time.Hour
)

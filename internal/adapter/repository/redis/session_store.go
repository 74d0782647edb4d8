package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore implements usecase.SessionStore as a denylist of revoked
// token IDs plus a per-user revocation cutoff. Entries expire together
// with the tokens they revoke.
type SessionStore struct {
	client     *redis.Client
	prefix     string
	userPrefix string
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{
		client:     client,
		prefix:     "session:revoked:",
		userPrefix: "session:revoked_before:",
	}
}

// Revoke marks a token ID as revoked for ttl.
func (s *SessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+tokenID, "1", ttl).Err()
}

// RevokeUser revokes every token of userID issued at or before at. The
// cutoff has second precision, matching the iat claim.
func (s *SessionStore) RevokeUser(ctx context.Context, userID string, at time.Time, ttl time.Duration) error {
	return s.client.Set(ctx, s.userPrefix+userID, at.Unix(), ttl).Err()
}

// IsRevoked reports whether a token has been revoked on its own or by a
// user-wide cutoff.
func (s *SessionStore) IsRevoked(ctx context.Context, tokenID, userID string, issuedAt time.Time) (bool, error) {
	pipe := s.client.Pipeline()
	exists := pipe.Exists(ctx, s.prefix+tokenID)
	cutoff := pipe.Get(ctx, s.userPrefix+userID)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}

	if exists.Val() > 0 {
		return true, nil
	}

	before, err := cutoff.Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return issuedAt.Unix() <= before, nil
}

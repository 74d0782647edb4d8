package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/fundsbook/internal/domain"
)

// ResetTokenStore implements usecase.ResetTokenStore.
type ResetTokenStore struct {
	client *redis.Client
	prefix string
}

// NewResetTokenStore creates a new ResetTokenStore.
func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{
		client: client,
		prefix: "password_reset:",
	}
}

// Save stores a reset token for userID.
func (s *ResetTokenStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+token, userID, ttl).Err()
}

// Lookup returns the user a token was issued for without spending it.
func (s *ResetTokenStore) Lookup(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, s.prefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrInvalidResetToken
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// Consume returns the user a token was issued for and deletes it in the
// same command, so a token can be used once.
func (s *ResetTokenStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, s.prefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrInvalidResetToken
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

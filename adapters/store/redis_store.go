package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
	"github.com/ExpertVagabond/purplesquirrel-media-app/ports"
)

// RedisNonceStore is a Redis implementation of the NonceStore interface.
type RedisNonceStore struct {
	client *redis.Client
	prefix string
}

// NewRedisNonceStore creates a new Redis nonce store.
func NewRedisNonceStore(client *redis.Client) ports.NonceStore {
	return &RedisNonceStore{
		client: client,
		prefix: "psm:nonce:",
	}
}

// Put stores a challenge with a TTL matching its expiry window.
func (s *RedisNonceStore) Put(ctx context.Context, challenge *core.Challenge) error {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	ttl := time.Until(challenge.ExpiresAt)
	if ttl <= 0 {
		return core.ErrInvalidChallenge
	}

	if err := s.client.Set(ctx, s.prefix+challenge.Nonce, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}
	return nil
}

// Take removes and returns the challenge for nonce. GETDEL makes the
// lookup-and-consume a single atomic operation, so concurrent verifications
// of the same nonce succeed at most once.
func (s *RedisNonceStore) Take(ctx context.Context, nonce string) (*core.Challenge, error) {
	payload, err := s.client.GetDel(ctx, s.prefix+nonce).Result()
	if err == redis.Nil {
		return nil, core.ErrInvalidChallenge
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take challenge: %w", err)
	}

	var challenge core.Challenge
	if err := json.Unmarshal([]byte(payload), &challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}
	if challenge.Expired(time.Now()) {
		return nil, core.ErrInvalidChallenge
	}
	return &challenge, nil
}

// RedisTokenStore is a Redis implementation of the TokenStore interface.
type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenStore creates a new Redis token revocation store.
func NewRedisTokenStore(client *redis.Client) ports.TokenStore {
	return &RedisTokenStore{
		client: client,
		prefix: "psm:revoked:",
	}
}

// Revoke marks a token as signed out in Redis.
func (s *RedisTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks whether a token has been signed out in Redis.
func (s *RedisTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	val, err := s.client.Exists(ctx, s.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return val > 0, nil
}

package ports

import (
	"context"
	"time"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
)

// NonceStore holds pending authentication challenges keyed by nonce.
type NonceStore interface {
	// Put stores a challenge until its expiry.
	Put(ctx context.Context, challenge *core.Challenge) error

	// Take atomically removes and returns the challenge for nonce. It returns
	// core.ErrInvalidChallenge when the nonce is unknown or already consumed;
	// two concurrent Takes for the same nonce succeed at most once.
	Take(ctx context.Context, nonce string) (*core.Challenge, error)
}

// TokenStore tracks revoked session tokens until their natural expiry.
type TokenStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

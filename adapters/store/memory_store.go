package store

import (
	"context"
	"sync"
	"time"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
	"github.com/ExpertVagabond/purplesquirrel-media-app/ports"
)

// MemoryNonceStore is an in-memory implementation of the NonceStore interface.
type MemoryNonceStore struct {
	mu         sync.Mutex
	challenges map[string]*core.Challenge
}

// NewMemoryNonceStore creates a new in-memory nonce store.
func NewMemoryNonceStore() ports.NonceStore {
	return &MemoryNonceStore{
		challenges: make(map[string]*core.Challenge),
	}
}

// Put stores a challenge until it is taken or expires.
func (s *MemoryNonceStore) Put(ctx context.Context, challenge *core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[challenge.Nonce] = challenge
	return nil
}

// Take removes and returns the challenge for nonce. The delete happens under
// the same lock as the lookup, so a nonce can only ever be taken once.
func (s *MemoryNonceStore) Take(ctx context.Context, nonce string) (*core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[nonce]
	if !ok {
		return nil, core.ErrInvalidChallenge
	}
	delete(s.challenges, nonce)

	if challenge.Expired(time.Now()) {
		return nil, core.ErrInvalidChallenge
	}
	return challenge, nil
}

// MemoryTokenStore is an in-memory implementation of the TokenStore interface.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

// NewMemoryTokenStore creates a new in-memory token revocation store.
func NewMemoryTokenStore() ports.TokenStore {
	return &MemoryTokenStore{
		revoked: make(map[string]time.Time),
	}
}

// Revoke marks a token as signed out until its natural expiry.
func (s *MemoryTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = time.Now().Add(ttl)
	return nil
}

// IsRevoked checks whether a token has been signed out.
func (s *MemoryTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	// The revocation record itself has lapsed once the token would have
	// expired anyway.
	if time.Now().After(expiry) {
		return false, nil
	}
	return true, nil
}

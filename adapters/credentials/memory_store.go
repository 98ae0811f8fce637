package credentials

import (
	"context"
	"sync"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
	"github.com/ExpertVagabond/purplesquirrel-media-app/ports"
)

// MemoryStore holds the token for the process lifetime only.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore creates an in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the held token.
func (s *MemoryStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", core.ErrNoCredential
	}
	return s.token, nil
}

// Save replaces the held token.
func (s *MemoryStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear drops the held token.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

var _ ports.CredentialStore = (*MemoryStore)(nil)

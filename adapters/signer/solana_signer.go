// Package signer provides wallet adapters implementing the ports.Signer
// capability. These hold key material locally; a mobile deployment would
// swap in an adapter backed by the platform wallet instead.
package signer

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/mr-tron/base58"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
	"github.com/ExpertVagabond/purplesquirrel-media-app/ports"
)

// SolanaSigner signs with a local ed25519 keypair and exposes its identity
// as a base58-encoded public key.
type SolanaSigner struct {
	mu        sync.Mutex
	key       ed25519.PrivateKey
	connected bool
}

// NewSolanaSigner creates a signer around an existing keypair.
func NewSolanaSigner(key ed25519.PrivateKey) *SolanaSigner {
	return &SolanaSigner{key: key}
}

// GenerateSolanaSigner creates a signer with a fresh keypair.
func GenerateSolanaSigner() (*SolanaSigner, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return NewSolanaSigner(key), nil
}

// Connect authorizes the wallet and returns its public identity.
func (s *SolanaSigner) Connect(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return s.address(), nil
}

// PublicKey returns the authorized identity, or "" when not connected.
func (s *SolanaSigner) PublicKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ""
	}
	return s.address()
}

// SignMessage signs the raw message bytes and returns a base58 signature.
func (s *SolanaSigner) SignMessage(ctx context.Context, msg []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return "", core.ErrWalletNotConnected
	}
	sig := ed25519.Sign(s.key, msg)
	return base58.Encode(sig), nil
}

// Disconnect releases the wallet authorization.
func (s *SolanaSigner) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *SolanaSigner) address() string {
	pub := s.key.Public().(ed25519.PublicKey)
	return base58.Encode(pub)
}

var _ ports.Signer = (*SolanaSigner)(nil)

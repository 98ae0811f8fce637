package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
	"github.com/ExpertVagabond/purplesquirrel-media-app/ports"
)

// EthSigner signs EIP-191 personal messages with a local secp256k1 key and
// exposes its identity as a 0x-prefixed address.
type EthSigner struct {
	mu        sync.Mutex
	key       *ecdsa.PrivateKey
	connected bool
}

// NewEthSigner creates a signer around an existing key.
func NewEthSigner(key *ecdsa.PrivateKey) *EthSigner {
	return &EthSigner{key: key}
}

// GenerateEthSigner creates a signer with a fresh key.
func GenerateEthSigner() (*EthSigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return NewEthSigner(key), nil
}

// Connect authorizes the wallet and returns its public identity.
func (s *EthSigner) Connect(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return s.address(), nil
}

// PublicKey returns the authorized identity, or "" when not connected.
func (s *EthSigner) PublicKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ""
	}
	return s.address()
}

// SignMessage signs the message per EIP-191 and returns a hex signature with
// V in {27, 28}, matching what browser wallets produce for personal_sign.
func (s *EthSigner) SignMessage(ctx context.Context, msg []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return "", core.ErrWalletNotConnected
	}

	sig, err := crypto.Sign(accounts.TextHash(msg), s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// Disconnect releases the wallet authorization.
func (s *EthSigner) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *EthSigner) address() string {
	return crypto.PubkeyToAddress(s.key.PublicKey).Hex()
}

var _ ports.Signer = (*EthSigner)(nil)

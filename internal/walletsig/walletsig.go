// Package walletsig verifies wallet signatures over challenge messages.
// Two identity encodings are supported: base58 ed25519 public keys
// (Solana-style, the platform default) and 0x-prefixed secp256k1 addresses
// verified against EIP-191 personal-sign signatures.
package walletsig

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
)

// Verify checks that signature was produced over message by the wallet
// identified by publicKey. The identity's encoding selects the scheme.
func Verify(publicKey string, message []byte, signature string) error {
	if strings.HasPrefix(publicKey, "0x") {
		return verifyEthereum(publicKey, message, signature)
	}
	return verifyEd25519(publicKey, message, signature)
}

func verifyEd25519(publicKey string, message []byte, signature string) error {
	keyBytes, err := base58.Decode(publicKey)
	if err != nil {
		return fmt.Errorf("decode public key: %w", core.ErrInvalidSignature)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return fmt.Errorf("public key must be %d bytes: %w", ed25519.PublicKeySize, core.ErrInvalidSignature)
	}

	sigBytes, err := base58.Decode(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", core.ErrInvalidSignature)
	}
	if len(sigBytes) != ed25519.SignatureSize {
		return fmt.Errorf("signature must be %d bytes: %w", ed25519.SignatureSize, core.ErrInvalidSignature)
	}

	if !ed25519.Verify(ed25519.PublicKey(keyBytes), message, sigBytes) {
		return core.ErrInvalidSignature
	}
	return nil
}

func verifyEthereum(address string, message []byte, signature string) error {
	sigBytes, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", core.ErrInvalidSignature)
	}
	if len(sigBytes) != crypto.SignatureLength {
		return fmt.Errorf("signature must be %d bytes: %w", crypto.SignatureLength, core.ErrInvalidSignature)
	}

	// personal_sign produces V in {27, 28}; SigToPub wants {0, 1}.
	sig := make([]byte, len(sigBytes))
	copy(sig, sigBytes)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return fmt.Errorf("recover public key: %w", core.ErrInvalidSignature)
	}

	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(address) {
		return core.ErrInvalidSignature
	}
	return nil
}

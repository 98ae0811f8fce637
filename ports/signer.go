package ports

import "context"

// Signer is the wallet capability the auth handshake depends on. It can
// authorize an identity for this app and sign arbitrary payloads without
// ever exposing the private key. Connect and SignMessage may block on user
// interaction in an external wallet.
type Signer interface {
	// Connect authorizes the wallet and returns its public identity.
	Connect(ctx context.Context) (publicKey string, err error)

	// PublicKey returns the authorized identity, or "" when not connected.
	PublicKey() string

	// SignMessage signs the raw bytes of msg and returns the signature in
	// the wallet's chain-specific string encoding.
	SignMessage(ctx context.Context, msg []byte) (signature string, err error)

	// Disconnect releases the wallet authorization. Safe to call when not
	// connected.
	Disconnect(ctx context.Context) error
}

package core

import "time"

// ChallengeMessagePrefix is the human-readable text a wallet is asked to sign.
// The nonce is appended so the signed payload is unique per sign-in attempt.
const ChallengeMessagePrefix = "Sign this message to authenticate with Purple Squirrel Media.\n\nNonce: "

// Challenge represents an authentication challenge bound to one wallet.
type Challenge struct {
	Nonce     string    // Random single-use token
	Message   string    // Human-readable text embedding the nonce
	PublicKey string    // Wallet identity the nonce was issued for
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // When the challenge stops being redeemable
}

// ChallengeMessage builds the exact message a wallet signs for the given nonce.
func ChallengeMessage(nonce string) string {
	return ChallengeMessagePrefix + nonce
}

// Expired reports whether the challenge is past its redeem window.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// AuthPhase is the position of a client inside the sign-in handshake.
type AuthPhase string

const (
	PhaseIdle              AuthPhase = "idle"
	PhaseRequestingNonce   AuthPhase = "requesting-nonce"
	PhaseAwaitingSignature AuthPhase = "awaiting-signature"
	PhaseVerifying         AuthPhase = "verifying"
	PhaseAuthenticated     AuthPhase = "authenticated"
)

// AuthState is the authentication state exposed to the rest of the application.
type AuthState struct {
	Authenticated bool
	User          *User
	Loading       bool
}

package ports

import (
	"time"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
)

// SessionClaims is what a parsed session token carries.
type SessionClaims struct {
	TokenID       string
	UserID        string
	WalletAddress string
	ExpiresAt     time.Time
}

// Tokenizer mints and parses the opaque bearer credential handed to clients.
type Tokenizer interface {
	MintSession(user *core.User) (token string, tokenID string, err error)
	ParseSession(token string) (*SessionClaims, error)
}

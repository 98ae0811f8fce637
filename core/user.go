package core

import "time"

// UserRole describes the capabilities of an account.
type UserRole string

const (
	RoleUser    UserRole = "user"
	RoleCreator UserRole = "creator"
	RoleAdmin   UserRole = "admin"
)

// User is an account keyed by its wallet address.
type User struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	Username      string    `json:"username"`
	Avatar        string    `json:"avatar,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	Role          UserRole  `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DefaultUsernameLen is how many leading characters of the wallet address
// seed a freshly created account's display name.
const DefaultUsernameLen = 8

// DefaultUsername derives the display name for a never-seen wallet identity.
func DefaultUsername(walletAddress string) string {
	prefix := walletAddress
	if len(prefix) > DefaultUsernameLen {
		prefix = prefix[:DefaultUsernameLen]
	}
	return "user_" + prefix
}

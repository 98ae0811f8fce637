package tokenizer

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
	"github.com/ExpertVagabond/purplesquirrel-media-app/ports"
)

// AudienceSession is the audience claim stamped on session tokens.
const AudienceSession = "psm:session"

// DefaultSessionExpiry is how long a minted session stays valid.
const DefaultSessionExpiry = 24 * time.Hour

// JWTTokenizer implements the Tokenizer interface using HS256 JWTs. Clients
// never inspect the token; to them it is an opaque bearer credential.
type JWTTokenizer struct {
	secret []byte
	expiry time.Duration
}

// NewJWTTokenizer creates a new JWT tokenizer.
func NewJWTTokenizer(secret string) ports.Tokenizer {
	return &JWTTokenizer{
		secret: []byte(secret),
		expiry: DefaultSessionExpiry,
	}
}

// MintSession creates a signed session token for a user.
func (j *JWTTokenizer) MintSession(user *core.User) (string, string, error) {
	tokenID := uuid.New().String()
	now := time.Now()

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        tokenID,
			Audience:  jwt.ClaimStrings{AudienceSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiry)),
		},
		WalletAddress: user.WalletAddress,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, tokenID, nil
}

// ParseSession validates a session token and extracts its claims.
func (j *JWTTokenizer) ParseSession(tokenStr string) (*ports.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithAudience(AudienceSession))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", core.ErrInvalidToken)
	}
	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, core.ErrInvalidToken
	}

	return &ports.SessionClaims{
		TokenID:       claims.ID,
		UserID:        claims.Subject,
		WalletAddress: claims.WalletAddress,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}

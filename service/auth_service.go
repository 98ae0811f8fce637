package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
	"github.com/ExpertVagabond/purplesquirrel-media-app/internal/walletsig"
	"github.com/ExpertVagabond/purplesquirrel-media-app/ports"
)

// DefaultChallengeTTL is how long an issued nonce stays redeemable.
const DefaultChallengeTTL = 5 * time.Minute

// nonceBytes is the entropy of an issued nonce.
const nonceBytes = 16

// AuthService is the remote authority side of the wallet handshake: it issues
// single-use nonces, verifies signatures against the bound identity, mints
// session tokens and resolves user records.
type AuthService struct {
	nonces    ports.NonceStore
	tokens    ports.TokenStore
	tokenizer ports.Tokenizer
	events    ports.EventPublisher
	log       *zap.Logger

	challengeTTL time.Duration

	mu          sync.RWMutex
	usersByID   map[string]*core.User
	usersByAddr map[string]*core.User
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	nonces ports.NonceStore,
	tokens ports.TokenStore,
	tokenizer ports.Tokenizer,
	events ports.EventPublisher,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		nonces:       nonces,
		tokens:       tokens,
		tokenizer:    tokenizer,
		events:       events,
		log:          log,
		challengeTTL: DefaultChallengeTTL,
		usersByID:    make(map[string]*core.User),
		usersByAddr:  make(map[string]*core.User),
	}
}

// CreateChallenge issues a nonce bound to publicKey and returns the challenge
// the wallet must sign.
func (s *AuthService) CreateChallenge(ctx context.Context, publicKey string) (*core.Challenge, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(buf)

	now := time.Now()
	challenge := &core.Challenge{
		Nonce:     nonce,
		Message:   core.ChallengeMessage(nonce),
		PublicKey: publicKey,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.challengeTTL),
	}

	if err := s.nonces.Put(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}
	return challenge, nil
}

// VerifyChallenge redeems a nonce against a wallet signature. The nonce is
// consumed atomically with the lookup, so a second verification with the same
// nonce always fails. Every failure mode maps to core.ErrInvalidChallenge so
// callers cannot probe which check rejected them.
func (s *AuthService) VerifyChallenge(ctx context.Context, publicKey, signature, nonce string) (string, *core.User, error) {
	challenge, err := s.nonces.Take(ctx, nonce)
	if err != nil {
		return "", nil, core.ErrInvalidChallenge
	}
	if challenge.PublicKey != publicKey {
		return "", nil, core.ErrInvalidChallenge
	}
	if err := walletsig.Verify(publicKey, []byte(challenge.Message), signature); err != nil {
		return "", nil, core.ErrInvalidChallenge
	}

	user := s.resolveUser(publicKey)

	token, _, err := s.tokenizer.MintSession(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to mint session: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishSignedIn(ctx, user.ID, user.WalletAddress); err != nil {
			s.log.Warn("failed to publish signed-in event", zap.Error(err))
		}
	}

	s.log.Info("wallet authenticated",
		zap.String("user_id", user.ID),
		zap.String("wallet", user.WalletAddress))
	return token, user, nil
}

// Authenticate resolves the user behind a bearer token, rejecting revoked or
// invalid sessions.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*core.User, error) {
	claims, err := s.tokenizer.ParseSession(token)
	if err != nil {
		return nil, core.ErrUnauthorized
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, core.ErrUnauthorized
	}

	user, err := s.UserByID(claims.UserID)
	if err != nil {
		return nil, core.ErrUnauthorized
	}
	return user, nil
}

// SignOut revokes a session token. Revoking an already invalid or expired
// token is not an error, matching the idempotence expected of sign-out.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokenizer.ParseSession(token)
	if err != nil {
		return nil
	}

	// Keep the revocation record at least an hour even for tokens about to
	// expire, so clock skew cannot resurrect them.
	ttl := time.Until(claims.ExpiresAt)
	if ttl < time.Hour {
		ttl = time.Hour
	}
	if err := s.tokens.Revoke(ctx, claims.TokenID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishSignedOut(ctx, claims.UserID, claims.TokenID); err != nil {
			s.log.Warn("failed to publish signed-out event", zap.Error(err))
		}
	}
	return nil
}

// UserByID retrieves a user record.
func (s *AuthService) UserByID(id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.usersByID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return user, nil
}

// resolveUser finds the account for a wallet identity, creating one with a
// derived display name the first time the identity is seen.
func (s *AuthService) resolveUser(walletAddress string) *core.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.usersByAddr[walletAddress]; ok {
		return user
	}

	user := &core.User{
		ID:            "user_" + uuid.New().String(),
		WalletAddress: walletAddress,
		Username:      core.DefaultUsername(walletAddress),
		Role:          core.RoleUser,
		CreatedAt:     time.Now(),
	}
	s.usersByID[user.ID] = user
	s.usersByAddr[walletAddress] = user
	return user
}

// AddUser registers a pre-built account, used for seeding demo data.
func (s *AuthService) AddUser(user *core.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByID[user.ID] = user
	s.usersByAddr[user.WalletAddress] = user
}

package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
	"github.com/ExpertVagabond/purplesquirrel-media-app/ports"
)

// AuthSession owns the process's authentication state. It runs the wallet
// handshake (nonce, signature, verification), persists the resulting
// credential, and restores or discards it on start. All session writes go
// through here; the rest of the application only reads State.
type AuthSession struct {
	api    *REST
	signer ports.Signer
	creds  ports.CredentialStore
	log    *zap.Logger

	mu    sync.Mutex
	phase core.AuthPhase
	state core.AuthState
}

// NewAuthSession creates the session controller. The state starts as loading
// until Restore has run.
func NewAuthSession(api *REST, signer ports.Signer, creds ports.CredentialStore, log *zap.Logger) *AuthSession {
	return &AuthSession{
		api:    api,
		signer: signer,
		creds:  creds,
		log:    log,
		phase:  core.PhaseIdle,
		state:  core.AuthState{Loading: true},
	}
}

// State returns the current authentication state.
func (a *AuthSession) State() core.AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Phase returns the current handshake phase.
func (a *AuthSession) Phase() core.AuthPhase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// Restore validates a persisted credential at process start. A valid one
// yields an authenticated state; anything else clears the credential and
// yields an unauthenticated state. Restore never starts a new handshake.
func (a *AuthSession) Restore(ctx context.Context) error {
	token, err := a.creds.Load(ctx)
	if err != nil {
		if !errors.Is(err, core.ErrNoCredential) {
			a.log.Warn("failed to load credential", zap.Error(err))
		}
		a.becomeUnauthenticated(ctx)
		return nil
	}

	a.api.SetToken(token)
	user, err := a.api.GetMe(ctx)
	if err != nil {
		a.log.Info("persisted credential rejected, clearing", zap.Error(err))
		a.becomeUnauthenticated(ctx)
		return nil
	}

	a.mu.Lock()
	a.phase = core.PhaseAuthenticated
	a.state = core.AuthState{Authenticated: true, User: user}
	a.mu.Unlock()

	a.log.Info("session restored", zap.String("user_id", user.ID))
	return nil
}

// SignIn runs the full handshake: wallet authorization, nonce request,
// message signing and verification. No session state is persisted unless
// every step succeeds; any failure returns the controller to idle.
func (a *AuthSession) SignIn(ctx context.Context) error {
	a.setLoading(true)

	user, err := a.handshake(ctx)
	if err != nil {
		a.mu.Lock()
		a.phase = core.PhaseIdle
		a.state.Loading = false
		a.mu.Unlock()
		return err
	}

	a.mu.Lock()
	a.phase = core.PhaseAuthenticated
	a.state = core.AuthState{Authenticated: true, User: user}
	a.mu.Unlock()

	a.log.Info("signed in", zap.String("user_id", user.ID))
	return nil
}

func (a *AuthSession) handshake(ctx context.Context) (*core.User, error) {
	// Reuse the wallet authorization when one is live; connecting may
	// otherwise block on user interaction.
	publicKey := a.signer.PublicKey()
	if publicKey == "" {
		var err error
		publicKey, err = a.signer.Connect(ctx)
		if err != nil {
			return nil, fmt.Errorf("wallet connection failed: %w", err)
		}
	}

	a.setPhase(core.PhaseRequestingNonce)
	nonce, err := a.api.GetNonce(ctx, publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth nonce: %w", err)
	}

	a.setPhase(core.PhaseAwaitingSignature)
	signature, err := a.signer.SignMessage(ctx, []byte(nonce.Message))
	if err != nil {
		return nil, fmt.Errorf("wallet signing failed: %w", err)
	}

	a.setPhase(core.PhaseVerifying)
	verified, err := a.api.VerifySignature(ctx, publicKey, signature, nonce.Nonce)
	if err != nil {
		return nil, fmt.Errorf("signature verification failed: %w", err)
	}

	// Only a fully verified handshake may touch the credential.
	if err := a.creds.Save(ctx, verified.Token); err != nil {
		return nil, fmt.Errorf("failed to persist credential: %w", err)
	}
	a.api.SetToken(verified.Token)

	return verified.User, nil
}

// SignOut revokes the server session best-effort, clears the persisted
// credential, releases the wallet authorization and resets state. It is safe
// to call from any state.
func (a *AuthSession) SignOut(ctx context.Context) error {
	if a.api.Token() != "" {
		if err := a.api.Logout(ctx); err != nil {
			a.log.Warn("server logout failed", zap.Error(err))
		}
	}

	if err := a.signer.Disconnect(ctx); err != nil {
		a.log.Warn("wallet disconnect failed", zap.Error(err))
	}

	a.becomeUnauthenticated(ctx)
	return nil
}

// HandleUnauthorized is the reaction to a 401 on any authenticated call:
// the credential it depended on is dead, so drop the session.
func (a *AuthSession) HandleUnauthorized(ctx context.Context) {
	a.log.Info("credential rejected by authority, signing out locally")
	a.becomeUnauthenticated(ctx)
}

func (a *AuthSession) becomeUnauthenticated(ctx context.Context) {
	if err := a.creds.Clear(ctx); err != nil {
		a.log.Warn("failed to clear credential", zap.Error(err))
	}
	a.api.ClearToken()

	a.mu.Lock()
	a.phase = core.PhaseIdle
	a.state = core.AuthState{}
	a.mu.Unlock()
}

func (a *AuthSession) setPhase(phase core.AuthPhase) {
	a.mu.Lock()
	a.phase = phase
	a.mu.Unlock()
}

func (a *AuthSession) setLoading(loading bool) {
	a.mu.Lock()
	a.state.Loading = loading
	a.mu.Unlock()
}

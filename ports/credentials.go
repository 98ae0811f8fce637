package ports

import "context"

// CredentialStore persists the opaque bearer token across process restarts.
// Implementations return core.ErrNoCredential from Load when nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (token string, err error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Package credentials provides CredentialStore adapters for the persisted
// session token.
package credentials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
	"github.com/ExpertVagabond/purplesquirrel-media-app/ports"
)

// FileStore persists the session token in a mode-0600 file. It stands in for
// the platform secure storage a mobile client would use.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed credential store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the conventional token location under the user's home.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".psm_token"
	}
	return filepath.Join(home, ".psm", "token")
}

// Load reads the persisted token.
func (s *FileStore) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", core.ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", core.ErrNoCredential
	}
	return token, nil
}

// Save writes the token, creating parent directories as needed.
func (s *FileStore) Save(ctx context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	return nil
}

// Clear deletes the persisted token. Clearing an absent token is not an error.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

var _ ports.CredentialStore = (*FileStore)(nil)

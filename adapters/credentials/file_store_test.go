package credentials_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ExpertVagabond/purplesquirrel-media-app/adapters/credentials"
	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "token")
	s := credentials.NewFileStore(path)

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, core.ErrNoCredential)

	require.NoError(t, s.Save(ctx, "session-token"))

	token, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "session-token", token)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	require.ErrorIs(t, err, core.ErrNoCredential)

	// Clearing twice is fine.
	require.NoError(t, s.Clear(ctx))
}

func TestFileStoreEmptyFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	_, err := credentials.NewFileStore(path).Load(ctx)
	require.ErrorIs(t, err, core.ErrNoCredential)
}

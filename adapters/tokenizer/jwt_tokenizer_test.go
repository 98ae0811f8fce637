package tokenizer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ExpertVagabond/purplesquirrel-media-app/adapters/tokenizer"
	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
)

func TestMintAndParseSession(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer("test-secret")
	user := &core.User{ID: "user_1", WalletAddress: "So11111111111111111111111111111111111111112"}

	token, tokenID, err := tk.MintSession(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, tokenID)

	claims, err := tk.ParseSession(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, user.WalletAddress, claims.WalletAddress)
	require.Equal(t, tokenID, claims.TokenID)
	require.WithinDuration(t, time.Now().Add(tokenizer.DefaultSessionExpiry), claims.ExpiresAt, time.Minute)
}

func TestParseSessionWrongSecret(t *testing.T) {
	user := &core.User{ID: "user_1", WalletAddress: "addr"}
	token, _, err := tokenizer.NewJWTTokenizer("secret-a").MintSession(user)
	require.NoError(t, err)

	_, err = tokenizer.NewJWTTokenizer("secret-b").ParseSession(token)
	require.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestParseSessionGarbage(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer("test-secret")

	_, err := tk.ParseSession("not.a.token")
	require.ErrorIs(t, err, core.ErrInvalidToken)

	_, err = tk.ParseSession("")
	require.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestSessionTokenIDsAreUnique(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer("test-secret")
	user := &core.User{ID: "user_1"}

	_, first, err := tk.MintSession(user)
	require.NoError(t, err)
	_, second, err := tk.MintSession(user)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

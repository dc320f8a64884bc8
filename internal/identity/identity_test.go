package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebox/internal/common"
)

func TestToken_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("user-1", secret, time.Minute)
	require.NoError(t, err)

	userID, err := UserIDFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestToken_Expired(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("user-1", secret, -time.Minute)
	require.NoError(t, err)

	_, err = UserIDFromToken(token, secret)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", []byte("right"), time.Minute)
	require.NoError(t, err)

	_, err = UserIDFromToken(token, []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestNewTokenPair(t *testing.T) {
	secret := []byte("test-secret")

	pair, err := NewTokenPair("user-2", secret, time.Minute, time.Hour)
	require.NoError(t, err)

	for _, token := range []string{pair.AccessToken, pair.RefreshToken} {
		userID, err := UserIDFromToken(token, secret)
		require.NoError(t, err)
		assert.Equal(t, "user-2", userID)
	}
}

func TestUserIDContext(t *testing.T) {
	ctx := context.Background()

	_, ok := UserIDFromContext(ctx)
	assert.False(t, ok)

	ctx = WithUserID(ctx, "user-3")
	id, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-3", id)

	_, ok = UserIDFromContext(WithUserID(context.Background(), ""))
	assert.False(t, ok, "empty id must not count as authenticated")
}

func TestPassword_HashAndVerify(t *testing.T) {
	hash, err := HashPassword([]byte("s3cret-Pass!"))
	require.NoError(t, err)

	ok, err := VerifyPassword([]byte("s3cret-Pass!"), hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword([]byte("wrong"), hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword([]byte("same"))
	require.NoError(t, err)
	h2, err := HashPassword([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestVerifyPassword_Malformed(t *testing.T) {
	_, err := VerifyPassword([]byte("x"), "not-a-hash")
	assert.Error(t, err)
}

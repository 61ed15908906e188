package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rukhmanov/kwadro-backend/config"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	svc := NewAuthService(newTestDB(t), &config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenExpiry:   1,
		RefreshExpiry: 24,
	})
	require.NoError(t, svc.EnsureAdmin("admin", "secret"))
	return svc
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Login("admin", "secret")
		require.NoError(t, err)
		assert.Equal(t, "admin", user.Username)
		assert.True(t, user.IsAdmin)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login("admin", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login("nobody", "secret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Login("admin", "secret")
	require.NoError(t, err)

	tokens, err := svc.GenerateTokens(user)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)

	claims, err := svc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.True(t, claims.IsAdmin)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	svc := newTestAuthService(t)

	// A second call must not duplicate or overwrite the account.
	require.NoError(t, svc.EnsureAdmin("admin", "different"))

	_, err := svc.Login("admin", "secret")
	assert.NoError(t, err)
}

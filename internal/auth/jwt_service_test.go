package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T, clock func() time.Time) *JWTService {
	t.Helper()

	svc, err := NewJWTService(JWTConfig{
		Secret:          "test-secret",
		Issuer:          "synergysphere",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Clock:           clock,
	})
	require.NoError(t, err)
	return svc
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestGeneratePairRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestJWTService(t, func() time.Time { return now })

	pair, err := svc.GeneratePair(TokenInput{UserID: "user-1", IsAdmin: true})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, now.Add(15*time.Minute), pair.ExpiresAt)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.True(t, claims.IsAdmin)
	require.Equal(t, TokenTypeAccess, claims.TokenType)
	require.NotEmpty(t, claims.ID)

	refreshClaims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
	require.NotEqual(t, claims.ID, refreshClaims.ID)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestJWTService(t, func() time.Time { return now })

	pair, err := svc.GeneratePair(TokenInput{UserID: "user-1"})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	require.Error(t, err)
	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	require.Error(t, err)
}

func TestValidateAccessTokenExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestJWTService(t, func() time.Time { return now })

	pair, err := svc.GeneratePair(TokenInput{UserID: "user-1"})
	require.NoError(t, err)

	now = now.Add(16 * time.Minute)
	_, err = svc.ValidateAccessToken(pair.AccessToken)
	require.Error(t, err)
}

func TestValidateAccessTokenRejectsWrongSecret(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestJWTService(t, func() time.Time { return now })

	other, err := NewJWTService(JWTConfig{Secret: "different", Issuer: "synergysphere"})
	require.NoError(t, err)

	pair, err := other.GeneratePair(TokenInput{UserID: "user-1"})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	require.Error(t, err)
}

func TestGeneratePairRequiresUserID(t *testing.T) {
	svc := newTestJWTService(t, nil)
	_, err := svc.GeneratePair(TokenInput{})
	require.Error(t, err)
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/girishiitm/synergysphere/internal/cache"
)

func testClaims(jti, userID string, issuedAt time.Time) *Claims {
	return &Claims{
		UserID:    userID,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       jti,
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}
}

func TestRevokeSingleToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := cache.NewMemoryStore().WithClock(clock)
	reg := NewRevocationRegistry(cache.NewClient(store), WithRevocationClock(clock))
	ctx := context.Background()

	claims := testClaims("jti-1", "user-1", now)
	require.False(t, reg.IsRevoked(ctx, claims))

	require.True(t, reg.Revoke(ctx, "jti-1", now.Add(15*time.Minute)))
	require.True(t, reg.IsRevoked(ctx, claims))

	// A different token for the same user is still fine.
	require.False(t, reg.IsRevoked(ctx, testClaims("jti-2", "user-1", now)))
}

func TestRevocationRecordLapsesWithToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := cache.NewMemoryStore().WithClock(clock)
	reg := NewRevocationRegistry(cache.NewClient(store), WithRevocationClock(clock))
	ctx := context.Background()

	require.True(t, reg.Revoke(ctx, "jti-1", now.Add(time.Minute)))
	require.True(t, reg.IsRevoked(ctx, testClaims("jti-1", "user-1", now)))

	now = now.Add(2 * time.Minute)
	require.False(t, reg.IsRevoked(ctx, testClaims("jti-1", "user-1", now.Add(-2*time.Minute))))
}

func TestRevokeAllForSubject(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := cache.NewMemoryStore().WithClock(clock)
	reg := NewRevocationRegistry(cache.NewClient(store), WithRevocationClock(clock))
	ctx := context.Background()

	before := testClaims("jti-1", "user-1", now.Add(-time.Minute))
	require.True(t, reg.RevokeAllForSubject(ctx, "user-1"))

	// Tokens issued before or at the marker are dead.
	require.True(t, reg.IsRevoked(ctx, before))
	require.True(t, reg.IsRevoked(ctx, testClaims("jti-2", "user-1", now)))

	// A token issued after a later login is honoured again.
	after := testClaims("jti-3", "user-1", now.Add(time.Second))
	require.False(t, reg.IsRevoked(ctx, after))

	// Other users are untouched.
	require.False(t, reg.IsRevoked(ctx, testClaims("jti-4", "user-2", now.Add(-time.Minute))))
}

func TestRevocationFailsOpenWithoutStore(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	reg := NewRevocationRegistry(cache.Disabled(), WithRevocationClock(func() time.Time { return now }))
	ctx := context.Background()

	require.False(t, reg.Revoke(ctx, "jti-1", now.Add(time.Minute)))
	require.False(t, reg.IsRevoked(ctx, testClaims("jti-1", "user-1", now)))
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/girishiitm/synergysphere/internal/auth"
	"github.com/girishiitm/synergysphere/internal/cache"
)

func newAuthFixture(t *testing.T, now func() time.Time) (*gin.Engine, *iauth.JWTService, *iauth.RevocationRegistry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret: "test-secret",
		Issuer: "synergysphere",
		Clock:  now,
	})
	require.NoError(t, err)

	store := cache.NewMemoryStore().WithClock(now)
	revocations := iauth.NewRevocationRegistry(cache.NewClient(store), iauth.WithRevocationClock(now))

	r := gin.New()
	r.GET("/me", Auth(jwt, revocations), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	r.GET("/admin", Auth(jwt, revocations), RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, jwt, revocations
}

func getWithToken(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAcceptsValidToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r, jwt, _ := newAuthFixture(t, func() time.Time { return now })

	pair, err := jwt.GeneratePair(iauth.TokenInput{UserID: "user-1"})
	require.NoError(t, err)

	w := getWithToken(r, "/me", pair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "user-1")
}

func TestAuthRejectsMissingAndMalformedHeaders(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r, _, _ := newAuthFixture(t, func() time.Time { return now })

	require.Equal(t, http.StatusUnauthorized, getWithToken(r, "/me", "").Code)
	require.Equal(t, http.StatusUnauthorized, getWithToken(r, "/me", "garbage").Code)
}

func TestAuthRejectsRefreshToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r, jwt, _ := newAuthFixture(t, func() time.Time { return now })

	pair, err := jwt.GeneratePair(iauth.TokenInput{UserID: "user-1"})
	require.NoError(t, err)

	require.Equal(t, http.StatusUnauthorized, getWithToken(r, "/me", pair.RefreshToken).Code)
}

func TestAuthRejectsRevokedToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r, jwt, revocations := newAuthFixture(t, func() time.Time { return now })

	pair, err := jwt.GeneratePair(iauth.TokenInput{UserID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getWithToken(r, "/me", pair.AccessToken).Code)

	claims, err := jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	revocations.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time)

	require.Equal(t, http.StatusUnauthorized, getWithToken(r, "/me", pair.AccessToken).Code)
}

func TestRequireAdmin(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r, jwt, _ := newAuthFixture(t, func() time.Time { return now })

	user, err := jwt.GeneratePair(iauth.TokenInput{UserID: "user-1"})
	require.NoError(t, err)
	admin, err := jwt.GeneratePair(iauth.TokenInput{UserID: "admin-1", IsAdmin: true})
	require.NoError(t, err)

	require.Equal(t, http.StatusForbidden, getWithToken(r, "/admin", user.AccessToken).Code)
	require.Equal(t, http.StatusOK, getWithToken(r, "/admin", admin.AccessToken).Code)
}

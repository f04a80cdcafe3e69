package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/girishiitm/synergysphere/internal/cache"
)

func TestRateLimitBlocksAfterBudget(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/login", RateLimit(NewMemoryRateStore(), 2, time.Minute), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
		codes = append(codes, w.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitUsesSharedStore(t *testing.T) {
	gin.SetMode(gin.TestMode)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := cache.NewMemoryStore().WithClock(func() time.Time { return now })

	r := gin.New()
	r.GET("/login", RateLimit(NewStoreRateStore(store), 1, time.Minute), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)

	// A fresh window admits requests again.
	now = now.Add(61 * time.Second)
	third := httptest.NewRecorder()
	r.ServeHTTP(third, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, third.Code)
}

func TestRateLimitNilStoreIsNoOp(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/open", RateLimit(nil, 1, time.Minute), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

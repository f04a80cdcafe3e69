package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/handlers"
	"github.com/girishiitm/synergysphere/internal/middleware"
)

func registerAuthRoutes(r *gin.Engine, handler *handlers.AuthHandler, requireAuth gin.HandlerFunc, rateStore middleware.RateStore) {
	group := r.Group("/api/auth")

	// Credential endpoints get a much tighter budget than the global limiter.
	strict := middleware.RateLimit(rateStore, 10, time.Minute)

	group.POST("/register", strict, handler.Register)
	group.POST("/verify-otp", strict, handler.VerifyOTP)
	group.POST("/resend-otp", strict, handler.ResendOTP)
	group.POST("/login", strict, handler.Login)
	group.POST("/refresh", handler.Refresh)
	group.POST("/forgot-password", strict, handler.ForgotPassword)
	group.POST("/reset-password", strict, handler.ResetPassword)

	group.DELETE("/logout", requireAuth, handler.Logout)
	group.POST("/logout-all", requireAuth, handler.LogoutAll)
}

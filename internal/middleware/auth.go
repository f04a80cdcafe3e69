package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/girishiitm/synergysphere/internal/auth"
	"github.com/girishiitm/synergysphere/pkg/errors"
	"github.com/girishiitm/synergysphere/pkg/response"
)

const (
	CtxClaimsKey  = "authClaims"
	CtxUserIDKey  = "userID"
	CtxIsAdminKey = "isAdmin"
)

// Auth enforces JWT authentication and consults the revocation registry so
// logged-out tokens die before their natural expiry.
func Auth(jwt *iauth.JWTService, revocations *iauth.RevocationRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		if revocations != nil && revocations.IsRevoked(c.Request.Context(), claims) {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		// Propagate identity into request context
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxIsAdminKey, claims.IsAdmin)

		c.Next()
	}
}

// RequireAdmin gates a route on the admin claim. Must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsAdminKey) {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID extracts the authenticated user from the gin context.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/handlers"
	"github.com/girishiitm/synergysphere/internal/middleware"
	"github.com/girishiitm/synergysphere/internal/routecache"
)

func registerProfileRoutes(api *gin.RouterGroup, handler *handlers.ProfileHandler, tags *routecache.TagRegistry) {
	group := api.Group("/profile")

	touch := middleware.InvalidateOnChange(tags, "profile", "users")

	group.GET("", handler.Get)
	group.PUT("", touch, handler.Update)
	group.PUT("/password", handler.ChangePassword)
}

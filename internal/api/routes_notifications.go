package api

import (
	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/handlers"
	"github.com/girishiitm/synergysphere/internal/middleware"
	"github.com/girishiitm/synergysphere/internal/routecache"
)

func registerNotificationRoutes(api *gin.RouterGroup, handler *handlers.NotificationHandler, tags *routecache.TagRegistry) {
	group := api.Group("/notifications")

	touch := middleware.InvalidateOnChange(tags, "notifications")

	group.GET("", handler.List)
	group.PUT("/:id/read", touch, handler.MarkRead)
	group.PUT("/read-all", touch, handler.MarkAllRead)
	group.DELETE("/:id", touch, handler.Delete)
}

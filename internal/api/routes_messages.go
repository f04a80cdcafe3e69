package api

import (
	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/handlers"
	"github.com/girishiitm/synergysphere/internal/middleware"
	"github.com/girishiitm/synergysphere/internal/routecache"
)

func registerMessageRoutes(api *gin.RouterGroup, handler *handlers.MessageHandler, tags *routecache.TagRegistry) {
	touchMessages := middleware.InvalidateOnChange(tags, "messages")

	projects := api.Group("/projects/:id/messages")
	projects.GET("", handler.List)
	projects.POST("", touchMessages, handler.Create)

	api.DELETE("/messages/:id", touchMessages, handler.Delete)
}

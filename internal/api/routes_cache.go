package api

import (
	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/handlers"
	"github.com/girishiitm/synergysphere/internal/middleware"
)

func registerCacheRoutes(api *gin.RouterGroup, handler *handlers.CacheAdminHandler) {
	group := api.Group("/cache")
	group.Use(middleware.RequireAdmin())

	group.GET("/stats", handler.Stats)
	group.POST("/clear", handler.Clear)
	group.POST("/invalidate", handler.Invalidate)
}

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/handlers"
)

func registerDashboardRoutes(api *gin.RouterGroup, handler *handlers.DashboardHandler) {
	group := api.Group("/dashboard")
	group.GET("/overview", handler.Overview)
	group.GET("/stats", handler.Stats)
}

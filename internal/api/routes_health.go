package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/handlers"
	"github.com/girishiitm/synergysphere/internal/middleware"
	"github.com/girishiitm/synergysphere/internal/monitoring"
	"github.com/girishiitm/synergysphere/internal/routecache"
	"github.com/girishiitm/synergysphere/pkg/response"
)

func registerHealthRoutes(r *gin.Engine, manager *routecache.Manager, health *monitoring.HealthManager) {
	serveCached := middleware.CacheRoute(manager)

	r.GET("/", serveCached, func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{
			"name":    "SynergySphere API",
			"version": handlers.Version,
		})
	})
	r.GET("/health", serveCached, handlers.Health(manager, health))
	r.GET("/version", serveCached, handlers.VersionInfo())
}

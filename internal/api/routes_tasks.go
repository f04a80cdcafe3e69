package api

import (
	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/handlers"
	"github.com/girishiitm/synergysphere/internal/middleware"
	"github.com/girishiitm/synergysphere/internal/routecache"
)

func registerTaskRoutes(api *gin.RouterGroup, handler *handlers.TaskHandler, tags *routecache.TagRegistry) {
	// Project views surface task counts, so task writes stale both families.
	touchTasks := middleware.InvalidateOnChange(tags, "tasks", "projects")

	projects := api.Group("/projects/:id/tasks")
	projects.GET("", handler.ListForProject)
	projects.POST("", touchTasks, handler.Create)

	tasks := api.Group("/tasks")
	tasks.GET("", handler.ListAssigned)
	tasks.GET("/:id", handler.Get)
	tasks.PUT("/:id", touchTasks, handler.Update)
	tasks.DELETE("/:id", touchTasks, handler.Delete)
}

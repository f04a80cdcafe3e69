package api

import (
	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/handlers"
	"github.com/girishiitm/synergysphere/internal/middleware"
	"github.com/girishiitm/synergysphere/internal/routecache"
)

func registerProjectRoutes(api *gin.RouterGroup, handler *handlers.ProjectHandler, tags *routecache.TagRegistry) {
	group := api.Group("/projects")

	touchProjects := middleware.InvalidateOnChange(tags, "projects")
	touchMembers := middleware.InvalidateOnChange(tags, "memberships", "projects")

	group.GET("", handler.List)
	group.POST("", touchProjects, handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", touchProjects, handler.Update)
	group.DELETE("/:id", touchProjects, handler.Delete)

	group.POST("/:id/members", touchMembers, handler.AddMember)
	group.DELETE("/:id/members/:userId", touchMembers, handler.RemoveMember)
}

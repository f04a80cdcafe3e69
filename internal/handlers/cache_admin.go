package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/routecache"
	apperrors "github.com/girishiitm/synergysphere/pkg/errors"
	"github.com/girishiitm/synergysphere/pkg/response"
)

// CacheAdminHandler exposes the route cache's operator surface. All routes
// sit behind the admin gate and are themselves never cached.
type CacheAdminHandler struct {
	manager *routecache.Manager
}

func NewCacheAdminHandler(manager *routecache.Manager) *CacheAdminHandler {
	return &CacheAdminHandler{manager: manager}
}

// GET /api/cache/stats
func (h *CacheAdminHandler) Stats(c *gin.Context) {
	response.Success(c, http.StatusOK, h.manager.Stats())
}

// POST /api/cache/clear
func (h *CacheAdminHandler) Clear(c *gin.Context) {
	removed := h.manager.Flush(requestContext(c))
	response.Success(c, http.StatusOK, gin.H{"removed": removed})
}

type invalidateRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,min=1"`
}

// POST /api/cache/invalidate
func (h *CacheAdminHandler) Invalidate(c *gin.Context) {
	var req invalidateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if h.manager.Tags() == nil {
		response.Error(c, apperrors.ErrInternalServer)
		return
	}
	h.manager.Tags().Invalidate(requestContext(c), req.Tags...)
	response.Success(c, http.StatusOK, gin.H{"invalidated": req.Tags})
}

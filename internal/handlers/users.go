package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/services"
	"github.com/girishiitm/synergysphere/pkg/response"
)

// UserHandler exposes user lookups for member pickers.
type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GET /api/users/search?q=<query>
func (h *UserHandler) Search(c *gin.Context) {
	results, err := h.users.Search(requestContext(c), c.Query("q"), parseIntQuery(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, results)
}

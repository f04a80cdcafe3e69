package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/middleware"
	"github.com/girishiitm/synergysphere/internal/services"
	apperrors "github.com/girishiitm/synergysphere/pkg/errors"
	"github.com/girishiitm/synergysphere/pkg/response"
)

// ProfileHandler exposes the authenticated user's own account.
type ProfileHandler struct {
	users *services.UserService
}

func NewProfileHandler(users *services.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	user, err := h.users.GetByID(requestContext(c), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

type updateProfileRequest struct {
	FullName       *string `json:"full_name" validate:"omitempty,max=128"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,max=1000"`
	NotifyEmail    *bool   `json:"notify_email"`
	NotifyInApp    *bool   `json:"notify_in_app"`
}

// PUT /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.UpdateProfile(requestContext(c), middleware.UserID(c), services.UpdateProfileInput{
		FullName:       req.FullName,
		ProfilePicture: req.ProfilePicture,
		NotifyEmail:    req.NotifyEmail,
		NotifyInApp:    req.NotifyInApp,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// PUT /api/profile/password
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := requestContext(c)
	user, err := h.users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if _, err := h.users.Authenticate(ctx, user.Email, req.CurrentPassword); err != nil {
		response.Error(c, apperrors.NewBadRequest("Current password is incorrect"))
		return
	}

	if err := h.users.UpdatePassword(ctx, user.ID, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Password updated"})
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/girishiitm/synergysphere/internal/auth"
	"github.com/girishiitm/synergysphere/internal/middleware"
	"github.com/girishiitm/synergysphere/internal/models"
	"github.com/girishiitm/synergysphere/internal/services"
	apperrors "github.com/girishiitm/synergysphere/pkg/errors"
	"github.com/girishiitm/synergysphere/pkg/metrics"
	"github.com/girishiitm/synergysphere/pkg/response"
)

// AuthHandler manages the registration and authentication flows.
type AuthHandler struct {
	users         *services.UserService
	verifications *services.VerificationService
	resets        *services.PasswordResetService
	notifications *services.NotificationService
	jwt           *iauth.JWTService
	revocations   *iauth.RevocationRegistry
}

func NewAuthHandler(
	users *services.UserService,
	verifications *services.VerificationService,
	resets *services.PasswordResetService,
	notifications *services.NotificationService,
	jwt *iauth.JWTService,
	revocations *iauth.RevocationRegistry,
) *AuthHandler {
	return &AuthHandler{
		users:         users,
		verifications: verifications,
		resets:        resets,
		notifications: notifications,
		jwt:           jwt,
		revocations:   revocations,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"max=128"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// POST /api/auth/register
//
// No account is created yet: the registration payload rides along with the
// verification code and only becomes a user once the address is proven.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := requestContext(c)
	taken, err := h.users.ExistsByEmailOrUsername(ctx, req.Email, req.Username)
	if err != nil {
		response.Error(c, err)
		return
	}
	if taken {
		response.Error(c, apperrors.ErrConflict.WithMessage("Username or email already in use"))
		return
	}

	payload, err := json.Marshal(services.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	if _, err := h.verifications.Issue(ctx, req.Email, services.PurposeRegistration, payload); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{
		"message": "Verification code sent, check your inbox",
	})
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := requestContext(c)
	payload, err := h.verifications.Verify(ctx, req.Email, services.PurposeRegistration, req.Code)
	if err != nil {
		response.Error(c, verificationError(err))
		return
	}

	var input services.CreateUserInput
	if err := json.Unmarshal(payload, &input); err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	user, err := h.users.Create(ctx, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.notifications != nil {
		_, _ = h.notifications.Create(ctx, services.CreateNotificationInput{
			UserID: user.ID,
			Type:   "account.welcome",
			Title:  "Welcome to SynergySphere",
			Body:   "Your account is ready. Create a project to get started.",
		})
	}

	h.issueTokens(c, user)
}

type resendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/auth/resend-otp
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req resendOTPRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if _, err := h.verifications.Resend(requestContext(c), req.Email, services.PurposeRegistration); err != nil {
		response.Error(c, verificationError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Verification code sent, check your inbox",
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Email, req.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.ErrInvalidCredentials)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	h.issueTokens(c, user)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	claims, err := h.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	ctx := requestContext(c)
	if h.revocations.IsRevoked(ctx, claims) {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(ctx, claims.UserID)
	if err != nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	// Rotate: the old refresh token dies with this exchange.
	h.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)

	h.issueTokens(c, user)
}

// DELETE /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	ctx := requestContext(c)
	h.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)

	// A refresh token sent along is revoked in the same stroke.
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		if refreshClaims, err := h.jwt.ValidateRefreshToken(req.RefreshToken); err == nil {
			h.revocations.Revoke(ctx, refreshClaims.ID, refreshClaims.ExpiresAt.Time)
		}
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// POST /api/auth/logout-all
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	h.revocations.RevokeAllForSubject(requestContext(c), claims.UserID)
	response.Success(c, http.StatusOK, gin.H{"message": "All sessions terminated"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/auth/forgot-password
//
// Always answers 200 so the endpoint cannot be used to enumerate accounts.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := requestContext(c)
	user, err := h.users.GetByEmail(ctx, req.Email)
	if err == nil {
		if _, issueErr := h.resets.Issue(ctx, user.ID, user.Email); issueErr != nil {
			response.Error(c, issueErr)
			return
		}
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "If that address has an account, a reset link is on its way",
	})
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := requestContext(c)
	userID, err := h.resets.Consume(ctx, req.Token)
	if err != nil {
		if errors.Is(err, services.ErrResetTokenInvalid) {
			response.Error(c, apperrors.NewBadRequest("Invalid or expired reset token"))
			return
		}
		response.Error(c, err)
		return
	}

	if err := h.users.UpdatePassword(ctx, userID, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	// Every outstanding session dies with the old password.
	h.revocations.RevokeAllForSubject(ctx, userID)

	response.Success(c, http.StatusOK, gin.H{"message": "Password updated, log in with your new password"})
}

func (h *AuthHandler) issueTokens(c *gin.Context, user *models.User) {
	pair, err := h.jwt.GeneratePair(iauth.TokenInput{UserID: user.ID, IsAdmin: user.IsAdmin})
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"tokens": pair,
		"user":   user,
	})
}

func currentClaims(c *gin.Context) *iauth.Claims {
	v, ok := c.Get(middleware.CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*iauth.Claims)
	return claims
}

// verificationError maps verification failures onto API-facing errors.
func verificationError(err error) error {
	switch {
	case errors.Is(err, services.ErrCodeNotFound):
		return apperrors.NewBadRequest("No verification code is active for that address, request a new one")
	case errors.Is(err, services.ErrCodeMismatch):
		var mismatch *services.CodeMismatchError
		if errors.As(err, &mismatch) {
			return apperrors.NewBadRequest(fmt.Sprintf("Incorrect verification code, %d attempts remaining", mismatch.Remaining))
		}
		return apperrors.NewBadRequest("Incorrect verification code")
	case errors.Is(err, services.ErrTooManyAttempts):
		return apperrors.NewBadRequest("Too many incorrect attempts, request a new code")
	default:
		return err
	}
}

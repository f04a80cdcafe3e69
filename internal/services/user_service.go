package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/girishiitm/synergysphere/internal/models"
	"github.com/girishiitm/synergysphere/pkg/crypto"
	apperrors "github.com/girishiitm/synergysphere/pkg/errors"
)

// CreateUserInput carries the attributes needed to persist a new account.
type CreateUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// UpdateProfileInput carries optional profile changes. Nil fields are left untouched.
type UpdateProfileInput struct {
	FullName       *string `json:"full_name"`
	ProfilePicture *string `json:"profile_picture"`
	NotifyEmail    *bool   `json:"notify_email"`
	NotifyInApp    *bool   `json:"notify_in_app"`
}

// UserService manages account records.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Create persists a new account with a hashed password.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	username := strings.TrimSpace(input.Username)
	email := normaliseEmail(input.Email)
	if username == "" || email == "" {
		return nil, apperrors.NewBadRequest("Username and email are required")
	}
	if input.Password == "" {
		return nil, apperrors.NewBadRequest("Password is required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := models.User{
		Username:    username,
		Email:       email,
		FullName:    strings.TrimSpace(input.FullName),
		Password:    hashed,
		NotifyEmail: true,
		NotifyInApp: true,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict.WithMessage("Username or email already in use")
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	return &user, nil
}

// GetByID loads a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// GetByEmail loads a user by email address.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", normaliseEmail(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// ExistsByEmailOrUsername reports whether either identifier is taken.
func (s *UserService) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ? OR username = ?", normaliseEmail(email), strings.TrimSpace(username)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("user service: count users: %w", err)
	}
	return count > 0, nil
}

// Authenticate checks credentials and returns the account on success.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !crypto.VerifyPassword(user.Password, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// UpdateProfile applies the supplied changes to a user's profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*input.FullName)
	}
	if input.ProfilePicture != nil {
		updates["profile_picture"] = strings.TrimSpace(*input.ProfilePicture)
	}
	if input.NotifyEmail != nil {
		updates["notify_email"] = *input.NotifyEmail
	}
	if input.NotifyInApp != nil {
		updates["notify_in_app"] = *input.NotifyInApp
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: update profile: %w", err)
	}

	return s.GetByID(ctx, userID)
}

// UpdatePassword replaces the stored hash for a user.
func (s *UserService) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	ctx = ensureContext(ctx)

	if newPassword == "" {
		return apperrors.NewBadRequest("Password is required")
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", strings.TrimSpace(userID)).
		Update("password", hashed)
	if result.Error != nil {
		return fmt.Errorf("user service: update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Search finds users whose username, email, or full name matches the query.
// Used for member pickers, so results are capped.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	ctx = ensureContext(ctx)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewBadRequest("Search query is required")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", pattern, pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: search users: %w", err)
	}
	return users, nil
}

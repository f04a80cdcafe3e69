package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/girishiitm/synergysphere/internal/models"
	apperrors "github.com/girishiitm/synergysphere/pkg/errors"
)

// CreateProjectInput carries attributes for a new project.
type CreateProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateProjectInput carries optional project changes.
type UpdateProjectInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// AddMemberInput identifies the user to add and the role to grant.
type AddMemberInput struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// ProjectService manages projects and their memberships. Every accessor
// enforces that the caller is a member; mutating operations additionally
// require an editor or owner role.
type ProjectService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewProjectService constructs a ProjectService.
func NewProjectService(db *gorm.DB, notifications *NotificationService) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("project service: db is required")
	}
	return &ProjectService{db: db, notifications: notifications}, nil
}

// Create persists a project and enrols the creator as its owner member.
func (s *ProjectService) Create(ctx context.Context, ownerID string, input CreateProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("Project name is required")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, errors.New("project service: owner id is required")
	}

	project := models.Project{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     ownerID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		member := models.ProjectMember{
			ProjectID: project.ID,
			UserID:    ownerID,
			Role:      models.ProjectRoleOwner,
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("enrol owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("project service: %w", err)
	}

	return &project, nil
}

// ListForUser returns every project the user belongs to.
func (s *ProjectService) ListForUser(ctx context.Context, userID string) ([]models.Project, error) {
	ctx = ensureContext(ctx)

	var projects []models.Project
	if err := s.db.WithContext(ctx).
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", strings.TrimSpace(userID)).
		Order("projects.created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project service: list projects: %w", err)
	}
	return projects, nil
}

// Get loads a project with its members. The caller must be a member.
func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*models.Project, error) {
	ctx = ensureContext(ctx)

	if _, err := s.MemberRole(ctx, userID, projectID); err != nil {
		return nil, err
	}

	var project models.Project
	if err := s.db.WithContext(ctx).
		Preload("Members").
		Preload("Members.User").
		First(&project, "id = ?", strings.TrimSpace(projectID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("project service: load project: %w", err)
	}
	return &project, nil
}

// Update applies changes to a project. Requires editor or owner role.
func (s *ProjectService) Update(ctx context.Context, userID, projectID string, input UpdateProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	if err := s.requireRole(ctx, userID, projectID, models.ProjectRoleOwner, models.ProjectRoleEditor); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("Project name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).
			Model(&models.Project{}).
			Where("id = ?", projectID).
			Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("project service: update project: %w", err)
		}
	}

	return s.Get(ctx, userID, projectID)
}

// Delete removes a project and its dependents. Only the owner may delete.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	ctx = ensureContext(ctx)

	if err := s.requireRole(ctx, userID, projectID, models.ProjectRoleOwner); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projectID = strings.TrimSpace(projectID)
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("project service: delete tasks: %w", err)
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("project service: delete messages: %w", err)
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectMember{}).Error; err != nil {
			return fmt.Errorf("project service: delete members: %w", err)
		}
		result := tx.Delete(&models.Project{}, "id = ?", projectID)
		if result.Error != nil {
			return fmt.Errorf("project service: delete project: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// AddMember enrols a user into a project. Requires editor or owner role.
func (s *ProjectService) AddMember(ctx context.Context, actorID, projectID string, input AddMemberInput) (*models.ProjectMember, error) {
	ctx = ensureContext(ctx)

	if err := s.requireRole(ctx, actorID, projectID, models.ProjectRoleOwner, models.ProjectRoleEditor); err != nil {
		return nil, err
	}

	role := defaultIfEmpty(strings.TrimSpace(input.Role), models.ProjectRoleViewer)
	switch role {
	case models.ProjectRoleEditor, models.ProjectRoleViewer:
	case models.ProjectRoleOwner:
		return nil, apperrors.NewBadRequest("Ownership cannot be granted through membership")
	default:
		return nil, apperrors.NewBadRequest("Unknown project role")
	}

	member := models.ProjectMember{
		ProjectID: strings.TrimSpace(projectID),
		UserID:    strings.TrimSpace(input.UserID),
		Role:      role,
	}
	if member.UserID == "" {
		return nil, apperrors.NewBadRequest("User id is required")
	}

	if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict.WithMessage("User is already a member of this project")
		}
		return nil, fmt.Errorf("project service: add member: %w", err)
	}

	s.notifyMemberAdded(ctx, member)
	return &member, nil
}

// RemoveMember drops a membership. Owners cannot be removed.
func (s *ProjectService) RemoveMember(ctx context.Context, actorID, projectID, userID string) error {
	ctx = ensureContext(ctx)

	if err := s.requireRole(ctx, actorID, projectID, models.ProjectRoleOwner, models.ProjectRoleEditor); err != nil {
		return err
	}

	role, err := s.MemberRole(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if role == models.ProjectRoleOwner {
		return apperrors.NewBadRequest("The project owner cannot be removed")
	}

	result := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", strings.TrimSpace(projectID), strings.TrimSpace(userID)).
		Delete(&models.ProjectMember{})
	if result.Error != nil {
		return fmt.Errorf("project service: remove member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MemberRole returns the caller's role in a project, or ErrForbidden when the
// caller is not a member.
func (s *ProjectService) MemberRole(ctx context.Context, userID, projectID string) (string, error) {
	ctx = ensureContext(ctx)

	var member models.ProjectMember
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", strings.TrimSpace(projectID), strings.TrimSpace(userID)).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrForbidden
		}
		return "", fmt.Errorf("project service: load membership: %w", err)
	}
	return member.Role, nil
}

func (s *ProjectService) requireRole(ctx context.Context, userID, projectID string, allowed ...string) error {
	role, err := s.MemberRole(ctx, userID, projectID)
	if err != nil {
		return err
	}
	for _, candidate := range allowed {
		if role == candidate {
			return nil
		}
	}
	return apperrors.ErrForbidden
}

func (s *ProjectService) notifyMemberAdded(ctx context.Context, member models.ProjectMember) {
	if s.notifications == nil {
		return
	}
	_, _ = s.notifications.Create(ctx, CreateNotificationInput{
		UserID:  member.UserID,
		Type:    "project.member_added",
		Title:   "Added to a project",
		Body:    "You have been added to a project.",
		Payload: map[string]any{"project_id": member.ProjectID, "role": member.Role},
	})
}

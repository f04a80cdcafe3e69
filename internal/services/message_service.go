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

// CreateMessageInput carries the body of a new discussion message.
type CreateMessageInput struct {
	Content string `json:"content"`
}

// MessageService manages project discussion threads. Any member may read and
// post; only the author or the project owner may delete.
type MessageService struct {
	db       *gorm.DB
	projects *ProjectService
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *gorm.DB, projects *ProjectService) (*MessageService, error) {
	if db == nil {
		return nil, errors.New("message service: db is required")
	}
	if projects == nil {
		return nil, errors.New("message service: project service is required")
	}
	return &MessageService{db: db, projects: projects}, nil
}

// ListForProject returns the discussion thread of a project, oldest first.
func (s *MessageService) ListForProject(ctx context.Context, userID, projectID string, limit, offset int) ([]models.Message, error) {
	ctx = ensureContext(ctx)

	if _, err := s.projects.MemberRole(ctx, userID, projectID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var messages []models.Message
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		Preload("User").
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("message service: list messages: %w", err)
	}
	return messages, nil
}

// Create posts a message to a project thread.
func (s *MessageService) Create(ctx context.Context, userID, projectID string, input CreateMessageInput) (*models.Message, error) {
	ctx = ensureContext(ctx)

	if _, err := s.projects.MemberRole(ctx, userID, projectID); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperrors.NewBadRequest("Message content is required")
	}

	message := models.Message{
		ProjectID: strings.TrimSpace(projectID),
		UserID:    strings.TrimSpace(userID),
		Content:   content,
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("message service: create message: %w", err)
	}
	return &message, nil
}

// Delete removes a message. Allowed for the author and the project owner.
func (s *MessageService) Delete(ctx context.Context, userID, messageID string) error {
	ctx = ensureContext(ctx)

	var message models.Message
	if err := s.db.WithContext(ctx).First(&message, "id = ?", strings.TrimSpace(messageID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("message service: load message: %w", err)
	}

	if message.UserID != userID {
		role, err := s.projects.MemberRole(ctx, userID, message.ProjectID)
		if err != nil {
			return err
		}
		if role != models.ProjectRoleOwner {
			return apperrors.ErrForbidden
		}
	}

	if err := s.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", message.ID).Error; err != nil {
		return fmt.Errorf("message service: delete message: %w", err)
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/girishiitm/synergysphere/internal/models"
	apperrors "github.com/girishiitm/synergysphere/pkg/errors"
)

// CreateTaskInput carries attributes for a new task.
type CreateTaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    int        `json:"priority"`
	AssigneeID  *string    `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
	Attachment  string     `json:"attachment"`
}

// UpdateTaskInput carries optional task changes. Nil fields are left untouched.
type UpdateTaskInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *int       `json:"priority"`
	AssigneeID  *string    `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
	Attachment  *string    `json:"attachment"`
}

// ListTasksInput filters task queries.
type ListTasksInput struct {
	ProjectID  string
	Status     string
	AssigneeID string
}

// TaskService manages tasks inside projects. Access follows project
// membership: viewers read, editors and owners write.
type TaskService struct {
	db            *gorm.DB
	projects      *ProjectService
	notifications *NotificationService
}

// NewTaskService constructs a TaskService.
func NewTaskService(db *gorm.DB, projects *ProjectService, notifications *NotificationService) (*TaskService, error) {
	if db == nil {
		return nil, errors.New("task service: db is required")
	}
	if projects == nil {
		return nil, errors.New("task service: project service is required")
	}
	return &TaskService{db: db, projects: projects, notifications: notifications}, nil
}

// Create persists a task in a project the caller can edit.
func (s *TaskService) Create(ctx context.Context, userID, projectID string, input CreateTaskInput) (*models.Task, error) {
	ctx = ensureContext(ctx)

	if err := s.projects.requireRole(ctx, userID, projectID, models.ProjectRoleOwner, models.ProjectRoleEditor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("Task title is required")
	}

	status := defaultIfEmpty(strings.TrimSpace(input.Status), models.TaskStatusTodo)
	if !validTaskStatus(status) {
		return nil, apperrors.NewBadRequest("Unknown task status")
	}

	task := models.Task{
		ProjectID:   strings.TrimSpace(projectID),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      status,
		Priority:    input.Priority,
		AssigneeID:  input.AssigneeID,
		DueDate:     normaliseTime(input.DueDate),
		Attachment:  strings.TrimSpace(input.Attachment),
	}

	if task.AssigneeID != nil {
		if _, err := s.projects.MemberRole(ctx, *task.AssigneeID, projectID); err != nil {
			return nil, apperrors.NewBadRequest("Assignee must be a project member")
		}
	}

	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, fmt.Errorf("task service: create task: %w", err)
	}

	s.notifyAssigned(ctx, task, userID)
	return &task, nil
}

// ListForProject returns the tasks of one project, optionally filtered.
func (s *TaskService) ListForProject(ctx context.Context, userID string, input ListTasksInput) ([]models.Task, error) {
	ctx = ensureContext(ctx)

	if _, err := s.projects.MemberRole(ctx, userID, input.ProjectID); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Where("project_id = ?", strings.TrimSpace(input.ProjectID))
	if status := strings.TrimSpace(input.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if assignee := strings.TrimSpace(input.AssigneeID); assignee != "" {
		query = query.Where("assignee_id = ?", assignee)
	}

	var tasks []models.Task
	if err := query.
		Preload("Assignee").
		Order("priority DESC, created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task service: list tasks: %w", err)
	}
	return tasks, nil
}

// ListAssigned returns every task assigned to the user across projects.
func (s *TaskService) ListAssigned(ctx context.Context, userID string) ([]models.Task, error) {
	ctx = ensureContext(ctx)

	var tasks []models.Task
	if err := s.db.WithContext(ctx).
		Where("assignee_id = ?", strings.TrimSpace(userID)).
		Order("due_date ASC, priority DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task service: list assigned: %w", err)
	}
	return tasks, nil
}

// Get loads one task after checking project membership.
func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*models.Task, error) {
	ctx = ensureContext(ctx)

	task, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.MemberRole(ctx, userID, task.ProjectID); err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies changes to a task. Requires editor or owner role.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (*models.Task, error) {
	ctx = ensureContext(ctx)

	task, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.projects.requireRole(ctx, userID, task.ProjectID, models.ProjectRoleOwner, models.ProjectRoleEditor); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewBadRequest("Task title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if !validTaskStatus(status) {
			return nil, apperrors.NewBadRequest("Unknown task status")
		}
		updates["status"] = status
	}
	if input.Priority != nil {
		updates["priority"] = *input.Priority
	}
	if input.AssigneeID != nil {
		assignee := strings.TrimSpace(*input.AssigneeID)
		if assignee == "" {
			updates["assignee_id"] = nil
		} else {
			if _, err := s.projects.MemberRole(ctx, assignee, task.ProjectID); err != nil {
				return nil, apperrors.NewBadRequest("Assignee must be a project member")
			}
			updates["assignee_id"] = assignee
		}
	}
	if input.DueDate != nil {
		updates["due_date"] = normaliseTime(input.DueDate)
	}
	if input.Attachment != nil {
		updates["attachment"] = strings.TrimSpace(*input.Attachment)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("task service: update task: %w", err)
		}
	}

	updated, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if input.AssigneeID != nil && updated.AssigneeID != nil {
		s.notifyAssigned(ctx, *updated, userID)
	}
	return updated, nil
}

// Delete removes a task. Requires editor or owner role.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	ctx = ensureContext(ctx)

	task, err := s.load(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.projects.requireRole(ctx, userID, task.ProjectID, models.ProjectRoleOwner, models.ProjectRoleEditor); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", task.ID).Error; err != nil {
		return fmt.Errorf("task service: delete task: %w", err)
	}
	return nil
}

func (s *TaskService) load(ctx context.Context, taskID string) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, "id = ?", strings.TrimSpace(taskID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("task service: load task: %w", err)
	}
	return &task, nil
}

func (s *TaskService) notifyAssigned(ctx context.Context, task models.Task, actorID string) {
	if s.notifications == nil || task.AssigneeID == nil || *task.AssigneeID == actorID {
		return
	}
	_, _ = s.notifications.Create(ctx, CreateNotificationInput{
		UserID: *task.AssigneeID,
		Type:   "task.assigned",
		Title:  "Task assigned to you",
		Body:   task.Title,
		Payload: map[string]any{
			"task_id":    task.ID,
			"project_id": task.ProjectID,
		},
	})
}

func validTaskStatus(status string) bool {
	switch status {
	case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone:
		return true
	}
	return false
}

// normaliseTime coerces timestamps to UTC so comparisons never depend on the
// client's zone.
func normaliseTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

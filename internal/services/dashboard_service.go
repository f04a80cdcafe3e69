package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/girishiitm/synergysphere/internal/models"
)

const recentDigestLimit = 5

// WeeklyActivity counts entities created inside the trailing seven days.
type WeeklyActivity struct {
	NewTasks    int `json:"new_tasks"`
	NewProjects int `json:"new_projects"`
}

// DashboardStatistics aggregates a user's workload across all their projects.
type DashboardStatistics struct {
	TotalProjects   int            `json:"total_projects"`
	OwnedProjects   int            `json:"owned_projects"`
	MemberProjects  int            `json:"member_projects"`
	TotalTasks      int            `json:"total_tasks"`
	CompletedTasks  int            `json:"completed_tasks"`
	InProgressTasks int            `json:"in_progress_tasks"`
	PendingTasks    int            `json:"pending_tasks"`
	OverdueTasks    int            `json:"overdue_tasks"`
	CompletionRate  float64        `json:"completion_rate"`
	TeamMembers     int            `json:"team_members"`
	WeeklyActivity  WeeklyActivity `json:"weekly_activity"`
}

// ProjectDigest is the dashboard's condensed view of one project.
type ProjectDigest struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	TaskCount      int       `json:"task_count"`
	CompletedTasks int       `json:"completed_tasks"`
	IsOwner        bool      `json:"is_owner"`
}

// TaskDigest is the dashboard's condensed view of one task.
type TaskDigest struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	ProjectID   string     `json:"project_id"`
	ProjectName string     `json:"project_name"`
	Assignee    string     `json:"assignee,omitempty"`
	IsOverdue   bool       `json:"is_overdue"`
}

// DashboardOverview is the full aggregate behind GET /api/dashboard/overview.
type DashboardOverview struct {
	Statistics     DashboardStatistics `json:"statistics"`
	RecentProjects []ProjectDigest     `json:"recent_projects"`
	RecentTasks    []TaskDigest        `json:"recent_tasks"`
}

// DashboardStats is the compact counter set behind GET /api/dashboard/stats.
type DashboardStats struct {
	TotalProjects  int64 `json:"total_projects"`
	TotalTasks     int64 `json:"total_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	PendingTasks   int64 `json:"pending_tasks"`
}

// DashboardOption customises the DashboardService.
type DashboardOption func(*DashboardService)

// WithDashboardClock injects a custom time source.
func WithDashboardClock(clock func() time.Time) DashboardOption {
	return func(s *DashboardService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// DashboardService computes per-user workload aggregates. Results are
// user-specific, so the route cache partitions them by subject.
type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(db *gorm.DB, opts ...DashboardOption) (*DashboardService, error) {
	if db == nil {
		return nil, errors.New("dashboard service: db is required")
	}
	service := &DashboardService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Overview aggregates the user's projects and tasks: status counts, overdue
// and weekly activity, plus the five most recently touched projects and the
// five newest tasks.
func (s *DashboardService) Overview(ctx context.Context, userID string) (*DashboardOverview, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("dashboard service: user id is required")
	}

	var projects []models.Project
	if err := s.db.WithContext(ctx).
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID).
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: list projects: %w", err)
	}

	projectIDs := make([]string, 0, len(projects))
	projectNames := make(map[string]string, len(projects))
	for _, p := range projects {
		projectIDs = append(projectIDs, p.ID)
		projectNames[p.ID] = p.Name
	}

	// Tasks inside the user's projects plus directly assigned strays.
	query := s.db.WithContext(ctx).Preload("Assignee")
	if len(projectIDs) > 0 {
		query = query.Where("project_id IN ? OR assignee_id = ?", projectIDs, userID)
	} else {
		query = query.Where("assignee_id = ?", userID)
	}
	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: list tasks: %w", err)
	}

	now := s.now().UTC()
	weekAgo := now.AddDate(0, 0, -7)

	stats := DashboardStatistics{
		TotalProjects: len(projects),
		TotalTasks:    len(tasks),
	}
	for _, p := range projects {
		if p.OwnerID == userID {
			stats.OwnedProjects++
		} else {
			stats.MemberProjects++
		}
		if p.CreatedAt.UTC().After(weekAgo) {
			stats.WeeklyActivity.NewProjects++
		}
	}

	tasksByProject := make(map[string][]models.Task)
	for _, task := range tasks {
		tasksByProject[task.ProjectID] = append(tasksByProject[task.ProjectID], task)

		switch task.Status {
		case models.TaskStatusDone:
			stats.CompletedTasks++
		case models.TaskStatusInProgress:
			stats.InProgressTasks++
		default:
			stats.PendingTasks++
		}
		if taskOverdue(task, now) {
			stats.OverdueTasks++
		}
		if task.CreatedAt.UTC().After(weekAgo) {
			stats.WeeklyActivity.NewTasks++
		}
	}

	if stats.TotalTasks > 0 {
		rate := float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
		stats.CompletionRate = math.Round(rate*10) / 10
	}

	teamMembers, err := s.countTeamMembers(ctx, projectIDs)
	if err != nil {
		return nil, err
	}
	stats.TeamMembers = teamMembers

	overview := &DashboardOverview{
		Statistics:     stats,
		RecentProjects: make([]ProjectDigest, 0, recentDigestLimit),
		RecentTasks:    make([]TaskDigest, 0, recentDigestLimit),
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	for _, p := range projects {
		if len(overview.RecentProjects) == recentDigestLimit {
			break
		}
		digest := ProjectDigest{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
			TaskCount:   len(tasksByProject[p.ID]),
			IsOwner:     p.OwnerID == userID,
		}
		for _, task := range tasksByProject[p.ID] {
			if task.Status == models.TaskStatusDone {
				digest.CompletedTasks++
			}
		}
		overview.RecentProjects = append(overview.RecentProjects, digest)
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	for _, task := range tasks {
		if len(overview.RecentTasks) == recentDigestLimit {
			break
		}
		digest := TaskDigest{
			ID:          task.ID,
			Title:       task.Title,
			Description: task.Description,
			Status:      task.Status,
			DueDate:     task.DueDate,
			CreatedAt:   task.CreatedAt,
			ProjectID:   task.ProjectID,
			ProjectName: projectNames[task.ProjectID],
			IsOverdue:   taskOverdue(task, now),
		}
		if task.Assignee != nil {
			digest.Assignee = task.Assignee.Username
		}
		overview.RecentTasks = append(overview.RecentTasks, digest)
	}

	return overview, nil
}

// Stats returns the compact counters: project membership count plus the
// user's assigned-task totals.
func (s *DashboardService) Stats(ctx context.Context, userID string) (*DashboardStats, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("dashboard service: user id is required")
	}

	var stats DashboardStats

	if err := s.db.WithContext(ctx).
		Model(&models.ProjectMember{}).
		Where("user_id = ?", userID).
		Count(&stats.TotalProjects).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: count projects: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("assignee_id = ?", userID).
		Count(&stats.TotalTasks).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: count tasks: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("assignee_id = ? AND status = ?", userID, models.TaskStatusDone).
		Count(&stats.CompletedTasks).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: count completed: %w", err)
	}

	stats.PendingTasks = stats.TotalTasks - stats.CompletedTasks
	return &stats, nil
}

func (s *DashboardService) countTeamMembers(ctx context.Context, projectIDs []string) (int, error) {
	if len(projectIDs) == 0 {
		return 0, nil
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.ProjectMember{}).
		Where("project_id IN ?", projectIDs).
		Distinct("user_id").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("dashboard service: count team members: %w", err)
	}
	return int(count), nil
}

func taskOverdue(task models.Task, now time.Time) bool {
	return task.DueDate != nil &&
		task.DueDate.UTC().Before(now) &&
		task.Status != models.TaskStatusDone
}

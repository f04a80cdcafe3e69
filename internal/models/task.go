package models

import "time"

// Task lifecycle states.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// Task belongs to a project and optionally to an assignee.
type Task struct {
	BaseModel

	ProjectID string   `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project `json:"-"`

	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	Status      string `gorm:"not null;default:todo;index" json:"status"`
	Priority    int    `gorm:"default:0" json:"priority"`

	AssigneeID *string    `gorm:"type:uuid;index" json:"assignee_id"`
	Assignee   *User      `json:"assignee,omitempty"`
	DueDate    *time.Time `json:"due_date"`

	Attachment string `json:"attachment"`
}

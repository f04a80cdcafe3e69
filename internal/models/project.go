package models

// Project groups tasks, members, and discussion threads.
type Project struct {
	BaseModel

	Name        string `gorm:"not null;index" json:"name"`
	Description string `json:"description"`
	OwnerID     string `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner       *User  `json:"owner,omitempty"`

	Members  []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Tasks    []Task          `gorm:"foreignKey:ProjectID" json:"-"`
	Messages []Message       `gorm:"foreignKey:ProjectID" json:"-"`
}

// Membership roles within a project.
const (
	ProjectRoleOwner  = "owner"
	ProjectRoleEditor = "editor"
	ProjectRoleViewer = "viewer"
)

// ProjectMember links a user to a project with a role.
type ProjectMember struct {
	BaseModel

	ProjectID string `gorm:"type:uuid;not null;uniqueIndex:idx_project_user" json:"project_id"`
	UserID    string `gorm:"type:uuid;not null;uniqueIndex:idx_project_user" json:"user_id"`
	Role      string `gorm:"not null;default:viewer" json:"role"`

	User *User `json:"user,omitempty"`
}

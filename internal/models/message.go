package models

// Message is a discussion entry on a project thread.
type Message struct {
	BaseModel

	ProjectID string `gorm:"type:uuid;not null;index" json:"project_id"`
	UserID    string `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User  `json:"user,omitempty"`

	Content string `gorm:"not null" json:"content"`
}

package models

import "gorm.io/datatypes"

// Notification is an in-app message delivered to a single user. Payload holds
// structured context (project id, task id, actor) that the client renders.
type Notification struct {
	BaseModel

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`

	Type    string         `gorm:"not null" json:"type"`
	Title   string         `gorm:"not null" json:"title"`
	Body    string         `json:"body"`
	Payload datatypes.JSON `json:"payload,omitempty"`

	IsRead bool `gorm:"default:false;index" json:"is_read"`
}

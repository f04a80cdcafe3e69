package models

// User describes a platform account. Accounts are only created after the
// registration OTP has been verified.
type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	FullName string `json:"full_name"`
	Password string `gorm:"not null" json:"-"`

	ProfilePicture string `json:"profile_picture"`

	NotifyEmail bool `gorm:"default:true" json:"notify_email"`
	NotifyInApp bool `gorm:"default:true" json:"notify_in_app"`

	IsAdmin bool `gorm:"default:false" json:"is_admin"`

	Projects      []Project      `gorm:"foreignKey:OwnerID" json:"-"`
	Tasks         []Task         `gorm:"foreignKey:AssigneeID" json:"-"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"-"`
}

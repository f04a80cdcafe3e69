package database

import (
	"gorm.io/gorm"

	"github.com/girishiitm/synergysphere/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.Message{},
		&models.Notification{},
		&models.CacheEntry{},
	)
}

package database

import "cadence/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for databases that create foreign keys eagerly.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.LearningPlan{},
		&models.Enrollment{},
		&models.Post{},
		&models.PostMedia{},
		&models.ProgressUpdate{},
		&models.ProgressUpdateMedia{},
		&models.Comment{},
		&models.Like{},
		&models.Notification{},
	}
}

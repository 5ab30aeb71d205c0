package models

import "time"

// ProgressUpdate is a learner's note against a learning plan.
// Its media rows are not cascade-owned; callers delete them explicitly.
type ProgressUpdate struct {
	ID             uint                  `gorm:"primaryKey" json:"id"`
	UserID         uint                  `gorm:"not null;index" json:"user_id"`
	LearningPlanID uint                  `gorm:"not null;index" json:"learning_plan_id"`
	Content        string                `gorm:"type:text" json:"content"`
	Media          []ProgressUpdateMedia `gorm:"foreignKey:ProgressUpdateID" json:"media"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`

	User         User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	LearningPlan LearningPlan `gorm:"foreignKey:LearningPlanID" json:"-"`
}

// ProgressUpdateMedia is one attachment of a progress update.
type ProgressUpdateMedia struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ProgressUpdateID uint      `gorm:"not null;index" json:"progress_update_id"`
	MediaType        MediaType `gorm:"type:varchar(8);not null" json:"media_type"`
	MediaURL         string    `gorm:"not null" json:"media_url"`
	ObjectKey        string    `gorm:"not null" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (ProgressUpdateMedia) TableName() string {
	return "progress_update_media"
}

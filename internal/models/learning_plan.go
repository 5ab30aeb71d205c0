package models

import "time"

// LearningPlan is an admin-authored curriculum users can enroll in.
type LearningPlan struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Title          string    `gorm:"not null;size:200" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	VideoURL       string    `json:"video_url,omitempty"`
	VideoFileURL   string    `json:"video_file_url,omitempty"`
	VideoObjectKey string    `json:"-"`
	CreatedBy      uint      `gorm:"not null;index" json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Creator     User         `gorm:"foreignKey:CreatedBy" json:"-"`
	Enrollments []Enrollment `gorm:"foreignKey:LearningPlanID;constraint:OnDelete:CASCADE" json:"-"`
}

// Enrollment ties a user to a learning plan. (UserID, LearningPlanID) is unique.
type Enrollment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;uniqueIndex:idx_enrollment_user_plan" json:"user_id"`
	LearningPlanID uint       `gorm:"not null;uniqueIndex:idx_enrollment_user_plan;index" json:"learning_plan_id"`
	EnrolledAt     time.Time  `gorm:"not null" json:"enrolled_at"`
	Completed      bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

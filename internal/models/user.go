// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// Role is the coarse authorization role of a user.
type Role string

const (
	// RoleUser is the default role for learners.
	RoleUser Role = "user"
	// RoleAdmin may author learning plans but cannot enroll in them.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an account on the platform.
type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	FirstName         string     `gorm:"size:100" json:"first_name"`
	LastName          string     `gorm:"size:100" json:"last_name"`
	Email             string     `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password          string     `gorm:"not null" json:"-"`
	Role              Role       `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	Gender            string     `gorm:"size:32" json:"gender,omitempty"`
	ProfilePictureURL string     `json:"profile_picture_url,omitempty"`
	ContactNo         string     `gorm:"size:32" json:"contact_no,omitempty"`
	DOB               *time.Time `json:"dob,omitempty"`
	Bio               string     `gorm:"type:text" json:"bio,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DisplayName is "First Last" with blanks collapsed.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// UserSummary is the author/sender snippet embedded in aggregated views.
type UserSummary struct {
	ID                uint   `json:"id"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Role              Role   `json:"role"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// Summary projects the user onto a UserSummary.
func (u *User) Summary() UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:                u.ID,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Role:              u.Role,
		ProfilePictureURL: u.ProfilePictureURL,
	}
}

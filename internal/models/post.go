package models

import (
	"strings"
	"time"
)

// MediaType classifies an uploaded attachment.
type MediaType string

const (
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
)

// MediaTypeFor maps a declared content type onto a MediaType.
// Only image/* and video/* are accepted.
func MediaTypeFor(contentType string) (MediaType, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaTypeImage, true
	case strings.HasPrefix(ct, "video/"):
		return MediaTypeVideo, true
	}
	return "", false
}

const (
	// MinPostMedia and MaxPostMedia bound the attachments of a post.
	MinPostMedia = 1
	MaxPostMedia = 3
)

// Post is a media post authored by a user.
type Post struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"not null;index" json:"user_id"`
	Caption   string      `gorm:"type:text" json:"caption"`
	Media     []PostMedia `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"media"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// PostMedia is one ordered attachment owned by a post.
type PostMedia struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index:idx_post_media_order" json:"post_id"`
	Position  int       `gorm:"not null;index:idx_post_media_order" json:"position"`
	MediaType MediaType `gorm:"type:varchar(8);not null" json:"media_type"`
	MediaURL  string    `gorm:"not null" json:"media_url"`
	ObjectKey string    `gorm:"not null" json:"-"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PostMedia) TableName() string {
	return "post_media"
}

package repository

import (
	"context"
	"time"

	"cadence/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Post, error)
	ListByUsers(ctx context.Context, userIDs []uint) ([]models.Post, error)
	UpdateCaption(ctx context.Context, id uint, caption string) error
	ReplaceMedia(ctx context.Context, postID uint, media []models.PostMedia) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts the post and its media rows. Media positions are taken as given.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	db := conn(ctx, r.db)
	media := post.Media
	if err := db.Omit(clause.Associations).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := r.insertMedia(db, post.ID, media); err != nil {
		return err
	}
	post.Media = media
	return nil
}

func (r *postRepository) insertMedia(db *gorm.DB, postID uint, media []models.PostMedia) error {
	if len(media) == 0 {
		return nil
	}
	for i := range media {
		media[i].PostID = postID
	}
	if err := db.Create(&media).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func withOrderedMedia(db *gorm.DB) *gorm.DB {
	return db.Preload("Media", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	})
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := withOrderedMedia(conn(ctx, r.db)).First(&post, id).Error; err != nil {
		return nil, lookupError(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context) ([]models.Post, error) {
	return r.find(withOrderedMedia(conn(ctx, r.db)))
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	return r.find(withOrderedMedia(conn(ctx, r.db)).Where("user_id = ?", userID))
}

func (r *postRepository) ListByUsers(ctx context.Context, userIDs []uint) ([]models.Post, error) {
	if len(userIDs) == 0 {
		return []models.Post{}, nil
	}
	return r.find(withOrderedMedia(conn(ctx, r.db)).Where("user_id IN ?", userIDs))
}

func (r *postRepository) find(q *gorm.DB) ([]models.Post, error) {
	posts := []models.Post{}
	if err := q.Order("created_at DESC, id DESC").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) UpdateCaption(ctx context.Context, id uint, caption string) error {
	err := conn(ctx, r.db).Model(&models.Post{ID: id}).Update("caption", caption).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ReplaceMedia drops every media row of the post and inserts media in its place.
func (r *postRepository) ReplaceMedia(ctx context.Context, postID uint, media []models.PostMedia) error {
	db := conn(ctx, r.db)
	if err := db.Where("post_id = ?", postID).Delete(&models.PostMedia{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := r.insertMedia(db, postID, media); err != nil {
		return err
	}
	if err := db.Model(&models.Post{ID: postID}).Update("updated_at", time.Now()).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the media rows and the post row. Likes, comments and
// notifications are the caller's responsibility.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	db := conn(ctx, r.db)
	if err := db.Where("post_id = ?", id).Delete(&models.PostMedia{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	result := db.Delete(&models.Post{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

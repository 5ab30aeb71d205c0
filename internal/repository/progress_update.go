package repository

import (
	"context"
	"time"

	"cadence/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressUpdateRepository stores progress updates and their media rows.
type ProgressUpdateRepository interface {
	Create(ctx context.Context, update *models.ProgressUpdate) error
	AddMedia(ctx context.Context, media []models.ProgressUpdateMedia) error
	GetByID(ctx context.Context, id uint) (*models.ProgressUpdate, error)
	ListByUser(ctx context.Context, userID uint) ([]models.ProgressUpdate, error)
	ListByPlan(ctx context.Context, planID uint) ([]models.ProgressUpdate, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	Touch(ctx context.Context, id uint) error
	DeleteMedia(ctx context.Context, updateID uint) error
	Delete(ctx context.Context, id uint) error
	CountByPlan(ctx context.Context, planID uint) (int64, error)
}

type progressUpdateRepository struct {
	db *gorm.DB
}

// NewProgressUpdateRepository creates a new progress update repository
func NewProgressUpdateRepository(db *gorm.DB) ProgressUpdateRepository {
	return &progressUpdateRepository{db: db}
}

// Create inserts the update row only; media is added with AddMedia.
func (r *progressUpdateRepository) Create(ctx context.Context, update *models.ProgressUpdate) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(update).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *progressUpdateRepository) AddMedia(ctx context.Context, media []models.ProgressUpdateMedia) error {
	if len(media) == 0 {
		return nil
	}
	if err := conn(ctx, r.db).Create(&media).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func withMediaInOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("Media", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (r *progressUpdateRepository) GetByID(ctx context.Context, id uint) (*models.ProgressUpdate, error) {
	var update models.ProgressUpdate
	if err := withMediaInOrder(conn(ctx, r.db)).First(&update, id).Error; err != nil {
		return nil, lookupError(err, "Progress update", id)
	}
	return &update, nil
}

func (r *progressUpdateRepository) ListByUser(ctx context.Context, userID uint) ([]models.ProgressUpdate, error) {
	return r.find(withMediaInOrder(conn(ctx, r.db)).Where("user_id = ?", userID))
}

func (r *progressUpdateRepository) ListByPlan(ctx context.Context, planID uint) ([]models.ProgressUpdate, error) {
	return r.find(withMediaInOrder(conn(ctx, r.db)).Where("learning_plan_id = ?", planID))
}

func (r *progressUpdateRepository) find(q *gorm.DB) ([]models.ProgressUpdate, error) {
	updates := []models.ProgressUpdate{}
	if err := q.Order("created_at DESC, id DESC").Find(&updates).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return updates, nil
}

func (r *progressUpdateRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	err := conn(ctx, r.db).Model(&models.ProgressUpdate{ID: id}).Update("content", content).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Touch bumps updated_at after a media-only change.
func (r *progressUpdateRepository) Touch(ctx context.Context, id uint) error {
	err := conn(ctx, r.db).Model(&models.ProgressUpdate{ID: id}).Update("updated_at", time.Now()).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *progressUpdateRepository) DeleteMedia(ctx context.Context, updateID uint) error {
	err := conn(ctx, r.db).Where("progress_update_id = ?", updateID).Delete(&models.ProgressUpdateMedia{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *progressUpdateRepository) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, r.db).Delete(&models.ProgressUpdate{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Progress update", id)
	}
	return nil
}

func (r *progressUpdateRepository) CountByPlan(ctx context.Context, planID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.ProgressUpdate{}).Where("learning_plan_id = ?", planID).Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

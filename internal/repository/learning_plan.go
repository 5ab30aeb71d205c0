package repository

import (
	"context"

	"cadence/internal/cache"
	"cadence/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LearningPlanRepository stores learning plans.
type LearningPlanRepository interface {
	Create(ctx context.Context, plan *models.LearningPlan) error
	GetByID(ctx context.Context, id uint) (*models.LearningPlan, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]models.LearningPlan, error)
	List(ctx context.Context) ([]models.LearningPlan, error)
	ListByCreator(ctx context.Context, creatorID uint) ([]models.LearningPlan, error)
	CountByCreator(ctx context.Context, creatorID uint) (int64, error)
	Update(ctx context.Context, plan *models.LearningPlan) error
	Delete(ctx context.Context, id uint) error
}

type learningPlanRepository struct {
	db *gorm.DB
}

// NewLearningPlanRepository creates a new learning plan repository
func NewLearningPlanRepository(db *gorm.DB) LearningPlanRepository {
	return &learningPlanRepository{db: db}
}

func (r *learningPlanRepository) Create(ctx context.Context, plan *models.LearningPlan) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(plan).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID reads through the plan cache outside transactions.
func (r *learningPlanRepository) GetByID(ctx context.Context, id uint) (*models.LearningPlan, error) {
	var plan models.LearningPlan
	fetch := func() error {
		if err := conn(ctx, r.db).First(&plan, id).Error; err != nil {
			return lookupError(err, "Learning plan", id)
		}
		return nil
	}

	var err error
	if inTransaction(ctx) {
		err = fetch()
	} else {
		err = cache.Aside(ctx, cache.PlanKey(id), &plan, cache.PlanTTL, fetch)
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *learningPlanRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]models.LearningPlan, error) {
	out := make(map[uint]models.LearningPlan, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var plans []models.LearningPlan
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&plans).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, p := range plans {
		out[p.ID] = p
	}
	return out, nil
}

func (r *learningPlanRepository) List(ctx context.Context) ([]models.LearningPlan, error) {
	return r.find(conn(ctx, r.db))
}

func (r *learningPlanRepository) ListByCreator(ctx context.Context, creatorID uint) ([]models.LearningPlan, error) {
	return r.find(conn(ctx, r.db).Where("created_by = ?", creatorID))
}

func (r *learningPlanRepository) find(q *gorm.DB) ([]models.LearningPlan, error) {
	plans := []models.LearningPlan{}
	if err := q.Order("created_at DESC, id DESC").Find(&plans).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return plans, nil
}

func (r *learningPlanRepository) CountByCreator(ctx context.Context, creatorID uint) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.LearningPlan{}).Where("created_by = ?", creatorID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *learningPlanRepository) Update(ctx context.Context, plan *models.LearningPlan) error {
	err := conn(ctx, r.db).Model(plan).
		Select("title", "description", "video_url", "video_file_url", "video_object_key").
		Updates(plan).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePlan(ctx, plan.ID)
	return nil
}

func (r *learningPlanRepository) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, r.db).Delete(&models.LearningPlan{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Learning plan", id)
	}
	cache.InvalidatePlan(ctx, id)
	return nil
}

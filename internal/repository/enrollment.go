package repository

import (
	"context"
	"time"

	"cadence/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollmentRepository stores user enrollments in learning plans.
type EnrollmentRepository interface {
	Create(ctx context.Context, e *models.Enrollment) error
	Get(ctx context.Context, userID, planID uint) (*models.Enrollment, error)
	Delete(ctx context.Context, userID, planID uint) (bool, error)
	MarkCompleted(ctx context.Context, id uint, at time.Time) error
	ListByUser(ctx context.Context, userID uint) ([]models.Enrollment, error)
	CountByPlans(ctx context.Context, planIDs []uint) (map[uint]int64, error)
	EnrolledPlanIDs(ctx context.Context, userID uint, planIDs []uint) (map[uint]bool, error)
	DeleteByPlan(ctx context.Context, planID uint) error
	DeleteByUser(ctx context.Context, userID uint) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, e *models.Enrollment) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(e).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User is already enrolled in this learning plan")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *enrollmentRepository) Get(ctx context.Context, userID, planID uint) (*models.Enrollment, error) {
	var e models.Enrollment
	err := conn(ctx, r.db).Where("user_id = ? AND learning_plan_id = ?", userID, planID).First(&e).Error
	if err != nil {
		return nil, lookupError(err, "Enrollment for learning plan", planID)
	}
	return &e, nil
}

func (r *enrollmentRepository) Delete(ctx context.Context, userID, planID uint) (bool, error) {
	result := conn(ctx, r.db).Where("user_id = ? AND learning_plan_id = ?", userID, planID).Delete(&models.Enrollment{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkCompleted flips the flag once; an already completed enrollment keeps its timestamp.
func (r *enrollmentRepository) MarkCompleted(ctx context.Context, id uint, at time.Time) error {
	err := conn(ctx, r.db).Model(&models.Enrollment{}).
		Where("id = ? AND completed = ?", id, false).
		Updates(map[string]interface{}{"completed": true, "completed_at": at}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListByUser returns enrollments newest first.
func (r *enrollmentRepository) ListByUser(ctx context.Context, userID uint) ([]models.Enrollment, error) {
	list := []models.Enrollment{}
	err := conn(ctx, r.db).Where("user_id = ?", userID).Order("enrolled_at DESC, id DESC").Find(&list).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return list, nil
}

type planCount struct {
	LearningPlanID uint
	Count          int64
}

func (r *enrollmentRepository) CountByPlans(ctx context.Context, planIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(planIDs))
	if len(planIDs) == 0 {
		return out, nil
	}
	var rows []planCount
	err := conn(ctx, r.db).Model(&models.Enrollment{}).
		Select("learning_plan_id, COUNT(*) AS count").
		Where("learning_plan_id IN ?", planIDs).
		Group("learning_plan_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.LearningPlanID] = row.Count
	}
	return out, nil
}

func (r *enrollmentRepository) EnrolledPlanIDs(ctx context.Context, userID uint, planIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if userID == 0 || len(planIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := conn(ctx, r.db).Model(&models.Enrollment{}).
		Where("user_id = ? AND learning_plan_id IN ?", userID, planIDs).
		Pluck("learning_plan_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *enrollmentRepository) DeleteByPlan(ctx context.Context, planID uint) error {
	if err := conn(ctx, r.db).Where("learning_plan_id = ?", planID).Delete(&models.Enrollment{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *enrollmentRepository) DeleteByUser(ctx context.Context, userID uint) error {
	if err := conn(ctx, r.db).Where("user_id = ?", userID).Delete(&models.Enrollment{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

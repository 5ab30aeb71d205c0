package repository

import (
	"context"

	"cadence/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository stores fan-out notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID uint) ([]models.Notification, error)
	UnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context, recipientID uint) (int64, error)
	DeleteByReferences(ctx context.Context, referenceIDs []uint, types ...models.NotificationType) error
	DeleteByUser(ctx context.Context, userID uint) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := conn(ctx, r.db).Create(n).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := conn(ctx, r.db).First(&n, id).Error; err != nil {
		return nil, lookupError(err, "Notification", id)
	}
	return &n, nil
}

// ListByRecipient returns notifications newest first.
func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uint) ([]models.Notification, error) {
	list := []models.Notification{}
	err := conn(ctx, r.db).Where("recipient_id = ?", recipientID).Order("created_at DESC, id DESC").Find(&list).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return list, nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uint) error {
	err := conn(ctx, r.db).Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	result := conn(ctx, r.db).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) DeleteByReferences(ctx context.Context, referenceIDs []uint, types ...models.NotificationType) error {
	if len(referenceIDs) == 0 {
		return nil
	}
	q := conn(ctx, r.db).Where("reference_id IN ?", referenceIDs)
	if len(types) > 0 {
		q = q.Where("type IN ?", types)
	}
	if err := q.Delete(&models.Notification{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteByUser removes notifications the user sent or received.
func (r *notificationRepository) DeleteByUser(ctx context.Context, userID uint) error {
	err := conn(ctx, r.db).
		Where("recipient_id = ? OR sender_id = ?", userID, userID).
		Delete(&models.Notification{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

package service

import (
	"context"
	"fmt"

	"cadence/internal/models"
	"cadence/internal/observability"
	"cadence/internal/policy"
	"cadence/internal/repository"
)

// NotificationService writes fan-out notifications and serves the inbox.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	policy        policy.Checker
}

// NotifyInput describes one engagement event addressed to a content owner.
type NotifyInput struct {
	RecipientID uint
	SenderID    uint
	Type        models.NotificationType
	ReferenceID uint
}

func NewNotificationService(store *repository.Store, checker policy.Checker) *NotificationService {
	return &NotificationService{
		notifications: store.Notifications,
		users:         store.Users,
		policy:        checker,
	}
}

// Notify appends one unread notification. Self-notifications are skipped and
// return nil. It joins the caller's transaction when ctx carries one.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*models.Notification, error) {
	if in.RecipientID == in.SenderID {
		return nil, nil
	}
	sender, err := s.users.GetByID(ctx, in.SenderID)
	if err != nil {
		return nil, err
	}

	n := &models.Notification{
		RecipientID: in.RecipientID,
		SenderID:    in.SenderID,
		Type:        in.Type,
		ReferenceID: in.ReferenceID,
		Message:     NotificationMessage(in.Type, sender.DisplayName()),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	observability.NotificationsCreated.WithLabelValues(string(in.Type)).Inc()
	return n, nil
}

// NotificationMessage renders the inbox text for an event.
func NotificationMessage(t models.NotificationType, senderName string) string {
	if senderName == "" {
		senderName = "Someone"
	}
	switch t {
	case models.NotificationLike:
		return fmt.Sprintf("%s liked your post", senderName)
	case models.NotificationComment:
		return fmt.Sprintf("%s commented on your post", senderName)
	case models.NotificationFollow:
		return fmt.Sprintf("%s started following you", senderName)
	default:
		return fmt.Sprintf("%s interacted with you", senderName)
	}
}

// List returns the user's notifications newest first with sender summaries.
func (s *NotificationService) List(ctx context.Context, userID uint) ([]models.NotificationView, error) {
	list, err := s.notifications.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}
	senderIDs := make([]uint, 0, len(list))
	for _, n := range list {
		senderIDs = append(senderIDs, n.SenderID)
	}
	senders, err := s.users.GetByIDs(ctx, uniqueIDs(senderIDs))
	if err != nil {
		return nil, err
	}

	views := make([]models.NotificationView, 0, len(list))
	for _, n := range list {
		views = append(views, models.NotificationView{Notification: n, Sender: summaryOf(senders, n.SenderID)})
	}
	return views, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.UnreadCount(ctx, userID)
}

// MarkRead is idempotent for the recipient and forbidden for anyone else.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) (*models.Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	actor := policy.Actor{ID: userID}
	if err := s.policy.Check(actor, policy.ActionMarkRead, policy.Resource{Kind: policy.KindNotification, OwnerID: n.RecipientID}); err != nil {
		return nil, err
	}
	if !n.Read {
		if err := s.notifications.MarkRead(ctx, id); err != nil {
			return nil, err
		}
		n.Read = true
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

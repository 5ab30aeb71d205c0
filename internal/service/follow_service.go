package service

import (
	"context"

	"cadence/internal/models"
	"cadence/internal/repository"
)

// FollowService maintains the directed follow graph.
type FollowService struct {
	tx       repository.Transactor
	users    repository.UserRepository
	follows  repository.FollowRepository
	notifier *NotificationService
}

func NewFollowService(store *repository.Store, notifier *NotificationService) *FollowService {
	return &FollowService{
		tx:       store.Tx,
		users:    store.Users,
		follows:  store.Follows,
		notifier: notifier,
	}
}

func (s *FollowService) ensureUsers(ctx context.Context, ids ...uint) error {
	for _, id := range ids {
		if _, err := s.users.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Follow adds the edge userID -> targetID. Following twice is a no-op and
// only the first call notifies the target.
func (s *FollowService) Follow(ctx context.Context, userID, targetID uint) error {
	if err := s.ensureUsers(ctx, userID, targetID); err != nil {
		return err
	}
	if userID == targetID {
		return models.NewValidationError("You cannot follow yourself")
	}

	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err := s.follows.Create(ctx, userID, targetID)
		if err != nil || !created {
			return err
		}
		_, err = s.notifier.Notify(ctx, NotifyInput{
			RecipientID: targetID,
			SenderID:    userID,
			Type:        models.NotificationFollow,
			ReferenceID: userID,
		})
		return err
	})
}

// Unfollow removes the edge if present.
func (s *FollowService) Unfollow(ctx context.Context, userID, targetID uint) error {
	if err := s.ensureUsers(ctx, userID, targetID); err != nil {
		return err
	}
	_, err := s.follows.Delete(ctx, userID, targetID)
	return err
}

func (s *FollowService) IsFollowing(ctx context.Context, userID, targetID uint) (bool, error) {
	return s.follows.Exists(ctx, userID, targetID)
}

// Followers lists users following userID, most recent first.
func (s *FollowService) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if err := s.ensureUsers(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.follows.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

// Following lists users userID follows, most recent first.
func (s *FollowService) Following(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if err := s.ensureUsers(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.follows.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

func (s *FollowService) Counts(ctx context.Context, userID uint) (models.FollowCounts, error) {
	if err := s.ensureUsers(ctx, userID); err != nil {
		return models.FollowCounts{}, err
	}
	return s.follows.Counts(ctx, userID)
}

func summaries(users []models.User) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out
}

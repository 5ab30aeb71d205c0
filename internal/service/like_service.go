package service

import (
	"context"

	"cadence/internal/models"
	"cadence/internal/observability"
	"cadence/internal/repository"
)

// LikeService records likes and their LIKE notifications.
type LikeService struct {
	tx       repository.Transactor
	users    repository.UserRepository
	posts    repository.PostRepository
	likes    repository.LikeRepository
	notifier *NotificationService
}

func NewLikeService(store *repository.Store, notifier *NotificationService) *LikeService {
	return &LikeService{
		tx:       store.Tx,
		users:    store.Users,
		posts:    store.Posts,
		likes:    store.Likes,
		notifier: notifier,
	}
}

// LikePost writes the like and notifies the author in one transaction.
func (s *LikeService) LikePost(ctx context.Context, postID, userID uint) (*models.Like, error) {
	like, err := s.likePost(ctx, postID, userID)
	result := "ok"
	switch {
	case models.HasCode(err, models.CodeConflict):
		result = "duplicate"
	case err != nil:
		result = "rejected"
	}
	observability.LikesTotal.WithLabelValues(result).Inc()
	return like, err
}

func (s *LikeService) likePost(ctx context.Context, postID, userID uint) (*models.Like, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID == userID {
		return nil, models.NewValidationError("You cannot like your own post")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	liked, err := s.likes.Exists(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if liked {
		return nil, models.NewConflictError("You have already liked this post")
	}

	like := &models.Like{PostID: postID, UserID: userID}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.likes.Create(ctx, like); err != nil {
			return err
		}
		_, err := s.notifier.Notify(ctx, NotifyInput{
			RecipientID: post.UserID,
			SenderID:    userID,
			Type:        models.NotificationLike,
			ReferenceID: postID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return like, nil
}

func (s *LikeService) UnlikePost(ctx context.Context, postID, userID uint) error {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return err
	}
	removed, err := s.likes.Delete(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError("Like for post", postID)
	}
	return nil
}

// ListLikes returns the likes of a post newest first with liker summaries.
func (s *LikeService) ListLikes(ctx context.Context, postID uint) ([]models.LikeView, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	likes, err := s.likes.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.UserID)
	}
	users, err := s.users.GetByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	views := make([]models.LikeView, 0, len(likes))
	for _, l := range likes {
		views = append(views, models.LikeView{Like: l, User: summaryOf(users, l.UserID)})
	}
	return views, nil
}

func (s *LikeService) LikeCount(ctx context.Context, postID uint) (int64, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return 0, err
	}
	return s.likes.Count(ctx, postID)
}

func (s *LikeService) HasLiked(ctx context.Context, postID, userID uint) (bool, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return false, err
	}
	return s.likes.Exists(ctx, postID, userID)
}

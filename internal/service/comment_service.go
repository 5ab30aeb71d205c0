package service

import (
	"context"
	"fmt"

	"cadence/internal/models"
	"cadence/internal/policy"
	"cadence/internal/repository"
)

// CommentService manages comments and their COMMENT notifications.
type CommentService struct {
	tx       repository.Transactor
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	feed     *FeedService
	notifier *NotificationService
	policy   policy.Checker
}

func NewCommentService(store *repository.Store, feed *FeedService, notifier *NotificationService, checker policy.Checker) *CommentService {
	return &CommentService{
		tx:       store.Tx,
		users:    store.Users,
		posts:    store.Posts,
		comments: store.Comments,
		feed:     feed,
		notifier: notifier,
		policy:   checker,
	}
}

func validateCommentContent(content string) (string, error) {
	content = trimmed(content)
	if content == "" {
		return "", models.NewValidationError("Comment content is required")
	}
	if len(content) > models.MaxCommentLength {
		return "", models.NewValidationError(fmt.Sprintf("Comment must not exceed %d characters", models.MaxCommentLength))
	}
	return content, nil
}

func (s *CommentService) CreateComment(ctx context.Context, postID, authorID uint, content string) (*models.CommentView, error) {
	content, err := validateCommentContent(content)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, UserID: authorID, Content: content}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.comments.Create(ctx, comment); err != nil {
			return err
		}
		_, err := s.notifier.Notify(ctx, NotifyInput{
			RecipientID: post.UserID,
			SenderID:    authorID,
			Type:        models.NotificationComment,
			ReferenceID: postID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &models.CommentView{Comment: *comment, User: author.Summary()}, nil
}

func (s *CommentService) GetComment(ctx context.Context, id uint) (*models.CommentView, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.feed.CommentViews(ctx, []models.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *CommentService) UpdateComment(ctx context.Context, id, requesterID uint, content string) (*models.CommentView, error) {
	comment, err := s.authorize(ctx, id, requesterID, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if comment.Content, err = validateCommentContent(content); err != nil {
		return nil, err
	}
	if err := s.comments.UpdateContent(ctx, comment); err != nil {
		return nil, err
	}
	return s.GetComment(ctx, id)
}

func (s *CommentService) DeleteComment(ctx context.Context, id, requesterID uint) error {
	if _, err := s.authorize(ctx, id, requesterID, policy.ActionDelete); err != nil {
		return err
	}
	return s.comments.Delete(ctx, id)
}

func (s *CommentService) authorize(ctx context.Context, id, requesterID uint, action policy.Action) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	actor, err := loadActor(ctx, s.users, requesterID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Check(actor, action, policy.Resource{Kind: policy.KindComment, OwnerID: comment.UserID}); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns the thread oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]models.CommentView, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.feed.CommentViews(ctx, comments)
}

func (s *CommentService) CommentCount(ctx context.Context, postID uint) (int64, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return 0, err
	}
	return s.comments.Count(ctx, postID)
}

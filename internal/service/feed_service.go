package service

import (
	"context"

	"cadence/internal/models"
	"cadence/internal/observability"
	"cadence/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// FeedService composes per-viewer post views from the engagement ledger.
// It never writes.
type FeedService struct {
	users    repository.UserRepository
	likes    repository.LikeRepository
	comments repository.CommentRepository
}

func NewFeedService(store *repository.Store) *FeedService {
	return &FeedService{
		users:    store.Users,
		likes:    store.Likes,
		comments: store.Comments,
	}
}

// PostViews aggregates posts with a fixed number of batched queries
// regardless of len(posts). viewerID 0 means no viewer.
func (s *FeedService) PostViews(ctx context.Context, posts []models.Post, viewerID uint) (views []models.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "FeedService.PostViews", attribute.Int("posts.count", len(posts)))
	defer span.End(&err)

	views = make([]models.PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	postIDs := make([]uint, len(posts))
	authorIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
		authorIDs[i] = p.UserID
	}

	var (
		likeCounts    map[uint]int64
		commentCounts map[uint]int64
		liked         map[uint]bool
		authors       map[uint]models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		likeCounts, err = s.likes.CountByPosts(gctx, postIDs)
		return err
	})
	g.Go(func() (err error) {
		commentCounts, err = s.comments.CountByPosts(gctx, postIDs)
		return err
	})
	g.Go(func() (err error) {
		liked, err = s.likes.LikedPostIDs(gctx, viewerID, postIDs)
		return err
	})
	g.Go(func() (err error) {
		authors, err = s.users.GetByIDs(gctx, uniqueIDs(authorIDs))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range posts {
		media := p.Media
		if media == nil {
			media = []models.PostMedia{}
		}
		views = append(views, models.PostView{
			ID:           p.ID,
			UserID:       p.UserID,
			Caption:      p.Caption,
			Media:        media,
			User:         summaryOf(authors, p.UserID),
			LikeCount:    likeCounts[p.ID],
			CommentCount: commentCounts[p.ID],
			HasLiked:     liked[p.ID],
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		})
	}
	return views, nil
}

// PostView aggregates a single post, optionally with its comment thread.
func (s *FeedService) PostView(ctx context.Context, post *models.Post, viewerID uint, withComments bool) (*models.PostView, error) {
	views, err := s.PostViews(ctx, []models.Post{*post}, viewerID)
	if err != nil {
		return nil, err
	}
	view := views[0]
	if withComments {
		comments, err := s.comments.ListByPost(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		if view.Comments, err = s.CommentViews(ctx, comments); err != nil {
			return nil, err
		}
	}
	return &view, nil
}

// CommentViews attaches author summaries with one lookup.
func (s *FeedService) CommentViews(ctx context.Context, comments []models.Comment) ([]models.CommentView, error) {
	authorIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.UserID)
	}
	authors, err := s.users.GetByIDs(ctx, uniqueIDs(authorIDs))
	if err != nil {
		return nil, err
	}
	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, models.CommentView{Comment: c, User: summaryOf(authors, c.UserID)})
	}
	return views, nil
}

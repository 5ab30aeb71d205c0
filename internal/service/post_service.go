package service

import (
	"context"
	"fmt"

	"cadence/internal/models"
	"cadence/internal/observability"
	"cadence/internal/policy"
	"cadence/internal/repository"
	"cadence/internal/storage"

	"go.opentelemetry.io/otel/attribute"
)

const postMediaPrefix = "posts"

// PostService owns posts and their ordered media.
type PostService struct {
	tx            repository.Transactor
	users         repository.UserRepository
	posts         repository.PostRepository
	likes         repository.LikeRepository
	comments      repository.CommentRepository
	notifications repository.NotificationRepository
	follows       repository.FollowRepository
	feed          *FeedService
	blobs         storage.BlobStore
	policy        policy.Checker
}

// CreatePostInput carries a new post with 1 to 3 media files.
type CreatePostInput struct {
	AuthorID uint
	Caption  string
	Media    []storage.Upload
}

// UpdatePostInput replaces the caption when Caption is set and the whole
// media set when Media is non-empty.
type UpdatePostInput struct {
	PostID  uint
	ActorID uint
	Caption *string
	Media   []storage.Upload
}

func NewPostService(store *repository.Store, feed *FeedService, blobs storage.BlobStore, checker policy.Checker) *PostService {
	return &PostService{
		tx:            store.Tx,
		users:         store.Users,
		posts:         store.Posts,
		likes:         store.Likes,
		comments:      store.Comments,
		notifications: store.Notifications,
		follows:       store.Follows,
		feed:          feed,
		blobs:         blobs,
		policy:        checker,
	}
}

// stagePostMedia writes every upload or none: the first storage failure
// aborts with STORAGE_ERROR and the deferred Abort purges what was written.
func (s *PostService) stagePostMedia(ctx context.Context, stage *storage.Stage, uploads []storage.Upload, types []models.MediaType) ([]models.PostMedia, error) {
	media := make([]models.PostMedia, 0, len(uploads))
	for i, u := range uploads {
		obj, err := stage.Put(ctx, postMediaPrefix, u)
		if err != nil {
			return nil, models.NewStorageError(fmt.Sprintf("Failed to store media file %q", u.Filename), err)
		}
		media = append(media, models.PostMedia{
			Position:  i,
			MediaType: types[i],
			MediaURL:  obj.URL,
			ObjectKey: obj.Key,
			Width:     obj.Width,
			Height:    obj.Height,
		})
	}
	return media, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (view *models.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost", attribute.Int("media.count", len(in.Media)))
	defer span.End(&err)

	if len(in.Media) < models.MinPostMedia || len(in.Media) > models.MaxPostMedia {
		return nil, models.NewValidationError(fmt.Sprintf("A post must have between %d and %d media files", models.MinPostMedia, models.MaxPostMedia))
	}
	types, err := checkMediaTypes(in.Media)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, in.AuthorID); err != nil {
		return nil, err
	}

	stage := storage.NewStage(s.blobs)
	defer stage.Abort(ctx)

	media, err := s.stagePostMedia(ctx, stage, in.Media, types)
	if err != nil {
		return nil, err
	}

	post := &models.Post{UserID: in.AuthorID, Caption: trimmed(in.Caption), Media: media}
	if err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.posts.Create(ctx, post)
	}); err != nil {
		return nil, err
	}
	stage.Commit(ctx)

	return s.feed.PostView(ctx, post, in.AuthorID, false)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (view *models.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.UpdatePost", attribute.Int("post.id", int(in.PostID)))
	defer span.End(&err)

	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	actor, err := loadActor(ctx, s.users, in.ActorID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Check(actor, policy.ActionUpdate, policy.Resource{Kind: policy.KindPost, OwnerID: post.UserID}); err != nil {
		return nil, err
	}
	if len(in.Media) > models.MaxPostMedia {
		return nil, models.NewValidationError(fmt.Sprintf("A post can have at most %d media files", models.MaxPostMedia))
	}
	types, err := checkMediaTypes(in.Media)
	if err != nil {
		return nil, err
	}

	stage := storage.NewStage(s.blobs)
	defer stage.Abort(ctx)

	var media []models.PostMedia
	if len(in.Media) > 0 {
		if media, err = s.stagePostMedia(ctx, stage, in.Media, types); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if in.Caption != nil {
			if err := s.posts.UpdateCaption(ctx, post.ID, trimmed(*in.Caption)); err != nil {
				return err
			}
		}
		if len(media) > 0 {
			return s.posts.ReplaceMedia(ctx, post.ID, media)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(media) > 0 {
		stage.DeleteLater(postMediaKeys(post.Media)...)
	}
	stage.Commit(ctx)

	updated, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return s.feed.PostView(ctx, updated, in.ActorID, false)
}

// DeletePost removes the post with its likes, comments and the LIKE and
// COMMENT notifications pointing at it, then deletes each media blob once.
func (s *PostService) DeletePost(ctx context.Context, postID, actorID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.DeletePost", attribute.Int("post.id", int(postID)))
	defer span.End(&err)

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	actor, err := loadActor(ctx, s.users, actorID)
	if err != nil {
		return err
	}
	if err := s.policy.Check(actor, policy.ActionDelete, policy.Resource{Kind: policy.KindPost, OwnerID: post.UserID}); err != nil {
		return err
	}

	stage := storage.NewStage(s.blobs)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return postCascade{s.posts, s.likes, s.comments, s.notifications}.delete(ctx, []uint{post.ID})
	})
	if err != nil {
		return err
	}
	stage.DeleteLater(postMediaKeys(post.Media)...)
	stage.Commit(ctx)
	return nil
}

// postCascade removes posts with their engagement rows. It must run inside
// a transaction.
type postCascade struct {
	posts         repository.PostRepository
	likes         repository.LikeRepository
	comments      repository.CommentRepository
	notifications repository.NotificationRepository
}

func (c postCascade) delete(ctx context.Context, postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	if err := c.likes.DeleteByPosts(ctx, postIDs); err != nil {
		return err
	}
	if err := c.comments.DeleteByPosts(ctx, postIDs); err != nil {
		return err
	}
	if err := c.notifications.DeleteByReferences(ctx, postIDs, models.NotificationLike, models.NotificationComment); err != nil {
		return err
	}
	for _, id := range postIDs {
		if err := c.posts.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func postMediaKeys(media []models.PostMedia) []string {
	keys := make([]string, 0, len(media))
	for _, m := range media {
		keys = append(keys, m.ObjectKey)
	}
	return keys
}

// GetPost returns the aggregated post with its comments.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.PostView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.feed.PostView(ctx, post, viewerID, true)
}

// ListPosts returns every post newest first.
func (s *PostService) ListPosts(ctx context.Context, viewerID uint) ([]models.PostView, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.feed.PostViews(ctx, posts, viewerID)
}

func (s *PostService) ListPostsByUser(ctx context.Context, userID, viewerID uint) ([]models.PostView, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.feed.PostViews(ctx, posts, viewerID)
}

// ListFollowingFeed returns posts by the users the viewer follows.
func (s *PostService) ListFollowingFeed(ctx context.Context, viewerID uint) ([]models.PostView, error) {
	ids, err := s.follows.FolloweeIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.feed.PostViews(ctx, posts, viewerID)
}

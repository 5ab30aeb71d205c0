package service

import (
	"context"
	"errors"
	"testing"

	"cadence/internal/middleware"
	"cadence/internal/models"
	"cadence/internal/policy"
	"cadence/internal/repository"
	"cadence/internal/storage"
	"cadence/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testTokens = middleware.TokenConfig{
	Secret:   "test-secret-that-is-long-enough-123456",
	Issuer:   "cadence-test",
	Audience: "cadence-test-client",
}

// fixture wires every service on a private sqlite database and an
// in-memory blob store.
type fixture struct {
	db    *gorm.DB
	store *repository.Store
	blobs *testutil.MemoryBlobStore

	users         *UserService
	follows       *FollowService
	notifications *NotificationService
	feed          *FeedService
	posts         *PostService
	likes         *LikeService
	comments      *CommentService
	progress      *ProgressUpdateService
	plans         *LearningPlanService
	enrollments   *EnrollmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	store := repository.NewStore(db)
	blobs := testutil.NewMemoryBlobStore()
	checker := policy.NewChecker()

	notifier := NewNotificationService(store, checker)
	feed := NewFeedService(store)
	return &fixture{
		db:            db,
		store:         store,
		blobs:         blobs,
		users:         NewUserService(store, blobs, checker, testTokens),
		follows:       NewFollowService(store, notifier),
		notifications: notifier,
		feed:          feed,
		posts:         NewPostService(store, feed, blobs, checker),
		likes:         NewLikeService(store, notifier),
		comments:      NewCommentService(store, feed, notifier, checker),
		progress:      NewProgressUpdateService(store, blobs, checker),
		plans:         NewLearningPlanService(store, blobs, checker),
		enrollments:   NewEnrollmentService(store, checker),
	}
}

func (f *fixture) user(t *testing.T, first, last string) *models.User {
	t.Helper()
	return testutil.CreateUser(t, f.db, first, last, models.RoleUser)
}

func (f *fixture) admin(t *testing.T, first, last string) *models.User {
	t.Helper()
	return testutil.CreateUser(t, f.db, first, last, models.RoleAdmin)
}

func (f *fixture) post(t *testing.T, authorID uint, files int) *models.PostView {
	t.Helper()
	in := CreatePostInput{AuthorID: authorID, Caption: "practice session"}
	for i := 0; i < files; i++ {
		in.Media = append(in.Media, testutil.ImageUpload(t, "shot.png", 4, 3))
	}
	view, err := f.posts.CreatePost(context.Background(), in)
	require.NoError(t, err)
	return view
}

func testutilImages(t *testing.T, n int) []storage.Upload {
	t.Helper()
	out := make([]storage.Upload, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, testutil.ImageUpload(t, "img.png", 2, 2))
	}
	return out
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

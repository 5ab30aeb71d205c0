package service

import (
	"context"
	"errors"
	"testing"

	"cadence/internal/models"
	"cadence/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub satisfies repository.UserRepository with overridable lookups.
type userRepoStub struct {
	getByIDFn func(ctx context.Context, id uint) (*models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, models.NewNotFoundError("User", id)
}
func (s *userRepoStub) GetByIDs(context.Context, []uint) (map[uint]models.User, error) {
	return map[uint]models.User{}, nil
}
func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return nil, models.NewNotFoundError("User", email)
}
func (s *userRepoStub) Create(context.Context, *models.User) error        { return nil }
func (s *userRepoStub) Update(context.Context, *models.User) error        { return nil }
func (s *userRepoStub) UpdatePassword(context.Context, uint, string) error { return nil }
func (s *userRepoStub) Delete(context.Context, uint) error                { return nil }
func (s *userRepoStub) List(context.Context) ([]models.User, error)       { return nil, nil }

func TestLoadActor(t *testing.T) {
	t.Parallel()

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()
		_, err := loadActor(context.Background(), &userRepoStub{}, 0)
		assertCode(t, err, models.CodeUnauthorized)
	})

	t.Run("deleted user", func(t *testing.T) {
		t.Parallel()
		_, err := loadActor(context.Background(), &userRepoStub{}, 9)
		assertCode(t, err, models.CodeUnauthorized)
		assert.Contains(t, err.Error(), "no longer exists")
	})

	t.Run("lookup failure passes through", func(t *testing.T) {
		t.Parallel()
		repo := &userRepoStub{getByIDFn: func(context.Context, uint) (*models.User, error) {
			return nil, models.NewInternalError(errors.New("db down"))
		}}
		_, err := loadActor(context.Background(), repo, 3)
		assertCode(t, err, models.CodeInternal)
	})

	t.Run("admin", func(t *testing.T) {
		t.Parallel()
		repo := &userRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleAdmin}, nil
		}}
		actor, err := loadActor(context.Background(), repo, 4)
		require.NoError(t, err)
		assert.Equal(t, uint(4), actor.ID)
		assert.True(t, actor.IsAdmin())
	})
}

func TestCheckMediaTypes(t *testing.T) {
	t.Parallel()

	types, err := checkMediaTypes([]storage.Upload{
		{Filename: "a.png", ContentType: "image/png"},
		{Filename: "b.mp4", ContentType: "video/mp4"},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.MediaType{models.MediaTypeImage, models.MediaTypeVideo}, types)

	_, err = checkMediaTypes([]storage.Upload{{Filename: "notes.pdf", ContentType: "application/pdf"}})
	assertValidationError(t, err)
}

func TestUniqueIDs(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []uint{3, 1, 2}, uniqueIDs([]uint{3, 1, 3, 0, 2, 1}))
	assert.Empty(t, uniqueIDs(nil))
}

func TestNotificationMessage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		typ  models.NotificationType
		name string
		want string
	}{
		{models.NotificationLike, "Ada Lovelace", "Ada Lovelace liked your post"},
		{models.NotificationComment, "Ada Lovelace", "Ada Lovelace commented on your post"},
		{models.NotificationFollow, "Ada Lovelace", "Ada Lovelace started following you"},
		{models.NotificationLike, "", "Someone liked your post"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NotificationMessage(tt.typ, tt.name))
	}
}

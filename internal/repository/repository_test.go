package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"cadence/internal/models"
	"cadence/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := testutil.NewTestDB(t)
	author := testutil.CreateUser(t, db, "Ada", "Lovelace", models.RoleUser)
	tx := NewTransactor(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		post := &models.Post{UserID: author.ID, Media: []models.PostMedia{
			{Position: 0, MediaType: models.MediaTypeImage, MediaURL: "u", ObjectKey: "k"},
		}}
		require.NoError(t, posts.Create(ctx, post))
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := posts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	var mediaRows int64
	require.NoError(t, db.Model(&models.PostMedia{}).Count(&mediaRows).Error)
	assert.Zero(t, mediaRows)
}

func TestTransactor_NestedCallJoinsOuter(t *testing.T) {
	db := testutil.NewTestDB(t)
	a := testutil.CreateUser(t, db, "Ada", "Lovelace", models.RoleUser)
	b := testutil.CreateUser(t, db, "Alan", "Turing", models.RoleUser)
	tx := NewTransactor(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := follows.Create(ctx, a.ID, b.ID)
			return err
		})
	})
	require.NoError(t, err)

	ok, err := follows.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostRepository_MediaOrderAndReplace(t *testing.T) {
	db := testutil.NewTestDB(t)
	author := testutil.CreateUser(t, db, "Grace", "Hopper", models.RoleUser)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{UserID: author.ID, Caption: "hello", Media: []models.PostMedia{
		{Position: 0, MediaType: models.MediaTypeImage, MediaURL: "a", ObjectKey: "a"},
		{Position: 1, MediaType: models.MediaTypeVideo, MediaURL: "b", ObjectKey: "b"},
		{Position: 2, MediaType: models.MediaTypeImage, MediaURL: "c", ObjectKey: "c"},
	}}
	require.NoError(t, repo.Create(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, got.Media, 3)
	for i, m := range got.Media {
		assert.Equal(t, i, m.Position)
	}
	assert.Equal(t, "b", got.Media[1].ObjectKey)

	require.NoError(t, repo.ReplaceMedia(ctx, post.ID, []models.PostMedia{
		{Position: 0, MediaType: models.MediaTypeVideo, MediaURL: "z", ObjectKey: "z"},
	}))
	got, err = repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, got.Media, 1)
	assert.Equal(t, "z", got.Media[0].ObjectKey)

	require.NoError(t, repo.Delete(ctx, post.ID))
	_, err = repo.GetByID(ctx, post.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestLikeRepository_UniquePerUserAndBatchedReads(t *testing.T) {
	db := testutil.NewTestDB(t)
	author := testutil.CreateUser(t, db, "Grace", "Hopper", models.RoleUser)
	liker := testutil.CreateUser(t, db, "Alan", "Turing", models.RoleUser)
	other := testutil.CreateUser(t, db, "Ada", "Lovelace", models.RoleUser)
	posts := NewPostRepository(db)
	likes := NewLikeRepository(db)
	ctx := context.Background()

	p1 := &models.Post{UserID: author.ID}
	p2 := &models.Post{UserID: author.ID}
	require.NoError(t, posts.Create(ctx, p1))
	require.NoError(t, posts.Create(ctx, p2))

	require.NoError(t, likes.Create(ctx, &models.Like{PostID: p1.ID, UserID: liker.ID}))
	require.NoError(t, likes.Create(ctx, &models.Like{PostID: p1.ID, UserID: other.ID}))
	err := likes.Create(ctx, &models.Like{PostID: p1.ID, UserID: liker.ID})
	assert.True(t, models.HasCode(err, models.CodeConflict))

	counts, err := likes.CountByPosts(ctx, []uint{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[p1.ID])
	assert.Equal(t, int64(0), counts[p2.ID])

	liked, err := likes.LikedPostIDs(ctx, liker.ID, []uint{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.True(t, liked[p1.ID])
	assert.False(t, liked[p2.ID])

	removed, err := likes.Delete(ctx, p1.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = likes.Delete(ctx, p1.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFollowRepository_DualViewsShareOneEdge(t *testing.T) {
	db := testutil.NewTestDB(t)
	a := testutil.CreateUser(t, db, "Ada", "Lovelace", models.RoleUser)
	b := testutil.CreateUser(t, db, "Alan", "Turing", models.RoleUser)
	c := testutil.CreateUser(t, db, "Grace", "Hopper", models.RoleUser)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)
	_, err = repo.Create(ctx, c.ID, b.ID)
	require.NoError(t, err)

	followers, err := repo.Followers(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 2)

	following, err := repo.Following(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, b.ID, following[0].ID)

	counts, err := repo.Counts(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowCounts{Followers: 2, Following: 0}, counts)

	require.NoError(t, repo.DeleteAllForUser(ctx, b.ID))
	counts, err = repo.Counts(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, counts.Followers)
}

func TestEnrollmentRepository_Lifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	admin := testutil.CreateUser(t, db, "Root", "Admin", models.RoleAdmin)
	learner := testutil.CreateUser(t, db, "Ada", "Lovelace", models.RoleUser)
	plan := testutil.CreatePlan(t, db, "Go basics", admin.ID)
	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Enrollment{UserID: learner.ID, LearningPlanID: plan.ID, EnrolledAt: time.Now()}))
	err := repo.Create(ctx, &models.Enrollment{UserID: learner.ID, LearningPlanID: plan.ID, EnrolledAt: time.Now()})
	assert.True(t, models.HasCode(err, models.CodeConflict))

	e, err := repo.Get(ctx, learner.ID, plan.ID)
	require.NoError(t, err)

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.MarkCompleted(ctx, e.ID, first))
	require.NoError(t, repo.MarkCompleted(ctx, e.ID, first.Add(time.Hour)))

	e, err = repo.Get(ctx, learner.ID, plan.ID)
	require.NoError(t, err)
	assert.True(t, e.Completed)
	require.NotNil(t, e.CompletedAt)
	assert.True(t, first.Equal(*e.CompletedAt))

	counts, err := repo.CountByPlans(ctx, []uint{plan.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[plan.ID])

	removed, err := repo.Delete(ctx, learner.ID, plan.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	require.NoError(t, repo.Create(ctx, &models.Enrollment{UserID: learner.ID, LearningPlanID: plan.ID, EnrolledAt: time.Now()}))
}

func TestNotificationRepository_ReadState(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	for i := uint(1); i <= 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{
			RecipientID: 1, SenderID: 2, Type: models.NotificationLike, ReferenceID: i, Message: "m",
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.Notification{
		RecipientID: 1, SenderID: 2, Type: models.NotificationFollow, ReferenceID: 2, Message: "m",
	}))

	count, err := repo.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	require.NoError(t, repo.DeleteByReferences(ctx, []uint{2}, models.NotificationLike, models.NotificationComment))
	list, err := repo.ListByRecipient(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	updated, err := repo.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)
	count, err = repo.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProgressUpdateRepository_MediaRowsAreExplicit(t *testing.T) {
	db := testutil.NewTestDB(t)
	admin := testutil.CreateUser(t, db, "Root", "Admin", models.RoleAdmin)
	learner := testutil.CreateUser(t, db, "Ada", "Lovelace", models.RoleUser)
	plan := testutil.CreatePlan(t, db, "Go basics", admin.ID)
	repo := NewProgressUpdateRepository(db)
	ctx := context.Background()

	update := &models.ProgressUpdate{UserID: learner.ID, LearningPlanID: plan.ID, Content: "day 1"}
	require.NoError(t, repo.Create(ctx, update))
	require.NoError(t, repo.AddMedia(ctx, []models.ProgressUpdateMedia{
		{ProgressUpdateID: update.ID, MediaType: models.MediaTypeImage, MediaURL: "a", ObjectKey: "a"},
		{ProgressUpdateID: update.ID, MediaType: models.MediaTypeVideo, MediaURL: "b", ObjectKey: "b"},
	}))

	got, err := repo.GetByID(ctx, update.ID)
	require.NoError(t, err)
	assert.Len(t, got.Media, 2)

	n, err := repo.CountByPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.DeleteMedia(ctx, update.ID))
	require.NoError(t, repo.Delete(ctx, update.ID))
	_, err = repo.GetByID(ctx, update.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUserRepository_UpdateKeepsPassword(t *testing.T) {
	db := testutil.NewTestDB(t)
	u := testutil.CreateUser(t, db, "Ada", "Lovelace", models.RoleUser)
	repo := NewUserRepository(db)
	ctx := context.Background()

	loaded, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	loaded.Password = ""
	loaded.Bio = "Analyst"
	require.NoError(t, repo.Update(ctx, loaded))

	byEmail, err := repo.GetByEmail(ctx, "ADA.Lovelace@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Analyst", byEmail.Bio)
	assert.Equal(t, u.Password, byEmail.Password)

	other := testutil.CreateUser(t, db, "Alan", "Turing", models.RoleUser)
	other.Email = u.Email
	err = repo.Update(ctx, other)
	assert.True(t, models.HasCode(err, models.CodeConflict))
}

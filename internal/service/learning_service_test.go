package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cadence/internal/models"
	"cadence/internal/storage"
	"cadence/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearningPlanService_CreatePlan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	admin := f.admin(t, "Head", "Teacher")
	learner := f.user(t, "New", "Learner")

	_, err := f.plans.CreatePlan(ctx, CreatePlanInput{ActorID: learner.ID, Title: "Scales"})
	assertCode(t, err, models.CodeForbidden)

	_, err = f.plans.CreatePlan(ctx, CreatePlanInput{ActorID: admin.ID, Title: "  "})
	assertValidationError(t, err)

	img := testutil.ImageUpload(t, "cover.png", 2, 2)
	_, err = f.plans.CreatePlan(ctx, CreatePlanInput{ActorID: admin.ID, Title: "Scales", Video: &img})
	assertValidationError(t, err)
	assert.Empty(t, f.blobs.Puts)

	video := testutil.VideoUpload("intro.mp4")
	view, err := f.plans.CreatePlan(ctx, CreatePlanInput{ActorID: admin.ID, Title: " Scales ", Description: "Major and minor", Video: &video})
	require.NoError(t, err)
	assert.Equal(t, "Scales", view.Title)
	assert.Equal(t, "Head Teacher", view.CreatedByUser.Name)
	assert.Zero(t, view.EnrollmentCount)
	assert.NotEmpty(t, view.VideoFileURL)
	assert.True(t, f.blobs.Has(view.VideoObjectKey))
}

func TestLearningPlanService_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("only the creating admin may change a plan", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		creator := f.admin(t, "Plan", "Creator")
		other := f.admin(t, "Other", "Admin")
		plan := testutil.CreatePlan(t, f.db, "Chords", creator.ID)

		title := "Taken over"
		_, err := f.plans.UpdatePlan(ctx, UpdatePlanInput{PlanID: plan.ID, ActorID: other.ID, Title: &title})
		assertCode(t, err, models.CodeForbidden)
		err = f.plans.DeletePlan(ctx, plan.ID, other.ID)
		assertCode(t, err, models.CodeForbidden)

		title = "Chords II"
		view, err := f.plans.UpdatePlan(ctx, UpdatePlanInput{PlanID: plan.ID, ActorID: creator.ID, Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Chords II", view.Title)
		assert.Equal(t, plan.Description, view.Description)
	})

	t.Run("replacing the video deletes the old file", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		creator := f.admin(t, "Plan", "Creator")
		first := testutil.VideoUpload("v1.mp4")
		created, err := f.plans.CreatePlan(ctx, CreatePlanInput{ActorID: creator.ID, Title: "Rhythm", Video: &first})
		require.NoError(t, err)

		second := testutil.VideoUpload("v2.mp4")
		updated, err := f.plans.UpdatePlan(ctx, UpdatePlanInput{PlanID: created.ID, ActorID: creator.ID, Video: &second})
		require.NoError(t, err)
		assert.NotEqual(t, created.VideoObjectKey, updated.VideoObjectKey)
		assert.Equal(t, []string{created.VideoObjectKey}, f.blobs.Deletes)
		assert.True(t, f.blobs.Has(updated.VideoObjectKey))

		removed, err := f.plans.UpdatePlan(ctx, UpdatePlanInput{PlanID: created.ID, ActorID: creator.ID, RemoveVideo: true})
		require.NoError(t, err)
		assert.Empty(t, removed.VideoFileURL)
		assert.False(t, f.blobs.Has(updated.VideoObjectKey))
	})

	t.Run("delete is refused while progress updates exist", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		creator := f.admin(t, "Plan", "Creator")
		learner := f.user(t, "Keen", "Learner")
		plan := testutil.CreatePlan(t, f.db, "Ear training", creator.ID)

		_, err := f.enrollments.Enroll(ctx, plan.ID, learner.ID)
		require.NoError(t, err)
		res, err := f.progress.Create(ctx, CreateProgressInput{AuthorID: learner.ID, PlanID: plan.ID, Content: "day one"})
		require.NoError(t, err)

		err = f.plans.DeletePlan(ctx, plan.ID, creator.ID)
		assertCode(t, err, models.CodeConflict)

		require.NoError(t, f.progress.Delete(ctx, res.Update.ID, learner.ID))
		require.NoError(t, f.plans.DeletePlan(ctx, plan.ID, creator.ID))
		assert.Zero(t, f.count(t, &models.Enrollment{}))

		_, err = f.plans.GetPlan(ctx, plan.ID, 0)
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestLearningPlanService_Views(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	creator := f.admin(t, "Plan", "Creator")
	alice := f.user(t, "Alice", "Learner")
	bob := f.user(t, "Bob", "Learner")
	scales := testutil.CreatePlan(t, f.db, "Scales", creator.ID)
	chords := testutil.CreatePlan(t, f.db, "Chords", creator.ID)

	for _, uid := range []uint{alice.ID, bob.ID} {
		_, err := f.enrollments.Enroll(ctx, scales.ID, uid)
		require.NoError(t, err)
	}

	views, err := f.plans.ListPlans(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	byID := map[uint]models.LearningPlanView{}
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.Equal(t, int64(2), byID[scales.ID].EnrollmentCount)
	assert.True(t, byID[scales.ID].UserEnrolled)
	assert.False(t, byID[chords.ID].UserEnrolled)

	anon, err := f.plans.GetPlan(ctx, scales.ID, 0)
	require.NoError(t, err)
	assert.False(t, anon.UserEnrolled)

	mine, err := f.plans.ListPlansByCreator(ctx, creator.ID, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	_, err = f.plans.ListPlansByCreator(ctx, 999, 0)
	assertCode(t, err, models.CodeNotFound)
}

func TestCreatorSummary(t *testing.T) {
	t.Parallel()
	users := map[uint]models.User{1: {ID: 1, FirstName: "Ada"}, 2: {ID: 2}}
	assert.Equal(t, "Ada", creatorSummary(users, 1).Name)
	assert.Equal(t, "Unknown", creatorSummary(users, 2).Name)
	assert.Equal(t, "Unknown", creatorSummary(users, 3).Name)
}

func TestEnrollmentService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	creator := f.admin(t, "Plan", "Creator")
	learner := f.user(t, "Keen", "Learner")
	plan := testutil.CreatePlan(t, f.db, "Scales", creator.ID)

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.enrollments.now = func() time.Time { return clock }

	_, err := f.enrollments.Enroll(ctx, plan.ID, creator.ID)
	assertCode(t, err, models.CodeForbidden)
	_, err = f.enrollments.Enroll(ctx, 999, learner.ID)
	assertCode(t, err, models.CodeNotFound)
	_, err = f.enrollments.Enroll(ctx, plan.ID, 999)
	assertCode(t, err, models.CodeNotFound)

	e, err := f.enrollments.Enroll(ctx, plan.ID, learner.ID)
	require.NoError(t, err)
	assert.Equal(t, clock, e.EnrolledAt)
	_, err = f.enrollments.Enroll(ctx, plan.ID, learner.ID)
	assertCode(t, err, models.CodeConflict)

	require.NoError(t, f.enrollments.Unenroll(ctx, plan.ID, learner.ID))
	err = f.enrollments.Unenroll(ctx, plan.ID, learner.ID)
	assertCode(t, err, models.CodeNotFound)
	_, err = f.enrollments.MarkCompleted(ctx, plan.ID, learner.ID)
	assertCode(t, err, models.CodeNotFound)

	_, err = f.enrollments.Enroll(ctx, plan.ID, learner.ID)
	require.NoError(t, err, "re-enrolling after unenroll succeeds")

	done, err := f.enrollments.MarkCompleted(ctx, plan.ID, learner.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	firstCompletion := done.CompletedAt.UTC()

	clock = clock.Add(48 * time.Hour)
	again, err := f.enrollments.MarkCompleted(ctx, plan.ID, learner.ID)
	require.NoError(t, err)
	require.NotNil(t, again.CompletedAt)
	assert.True(t, firstCompletion.Equal(again.CompletedAt.UTC()))

	list, err := f.enrollments.ListEnrollments(ctx, learner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Scales", list[0].PlanTitle)
	assert.Equal(t, plan.Description, list[0].PlanDescription)
}

func TestProgressUpdateService_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("per item media results", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		creator := f.admin(t, "Plan", "Creator")
		learner := f.user(t, "Keen", "Learner")
		plan := testutil.CreatePlan(t, f.db, "Scales", creator.ID)

		f.blobs.FailPut = func(_, contentType string) error {
			if contentType == "video/mp4" {
				return errors.New("disk full")
			}
			return nil
		}
		res, err := f.progress.Create(ctx, CreateProgressInput{
			AuthorID: learner.ID,
			PlanID:   plan.ID,
			Content:  "  practiced C major ",
			Media: []storage.Upload{
				testutil.ImageUpload(t, "hands.png", 2, 2),
				storage.BytesUpload("notes.pdf", "application/pdf", []byte("%PDF")),
				testutil.VideoUpload("take.mp4"),
				testutil.ImageUpload(t, "sheet.png", 2, 2),
			},
		})
		require.NoError(t, err)
		require.Len(t, res.MediaResults, 4)
		assert.True(t, res.MediaResults[0].Stored)
		assert.False(t, res.MediaResults[1].Stored)
		assert.False(t, res.MediaResults[2].Stored)
		assert.True(t, res.MediaResults[3].Stored)
		require.NotNil(t, res.MediaResults[3].Media)
		assert.NotZero(t, res.MediaResults[3].Media.ID)
		assert.Len(t, res.Failed(), 2)

		assert.Equal(t, "practiced C major", res.Update.Content)
		assert.Equal(t, "Scales", res.Update.PlanTitle)
		assert.Equal(t, learner.ID, res.Update.User.ID)
		assert.Len(t, res.Update.Media, 2)
	})

	t.Run("missing plan", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		learner := f.user(t, "Keen", "Learner")
		_, err := f.progress.Create(ctx, CreateProgressInput{AuthorID: learner.ID, PlanID: 999, Content: "x"})
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestProgressUpdateService_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *models.User, *models.ProgressUpdateView) {
		f := newFixture(t)
		creator := f.admin(t, "Plan", "Creator")
		learner := f.user(t, "Keen", "Learner")
		plan := testutil.CreatePlan(t, f.db, "Scales", creator.ID)
		res, err := f.progress.Create(ctx, CreateProgressInput{
			AuthorID: learner.ID,
			PlanID:   plan.ID,
			Content:  "first week",
			Media: []storage.Upload{
				testutil.ImageUpload(t, "a.png", 2, 2),
				testutil.ImageUpload(t, "b.png", 2, 2),
			},
		})
		require.NoError(t, err)
		return f, learner, res.Update
	}

	t.Run("dropping existing media without new files leaves none", func(t *testing.T) {
		t.Parallel()
		f, learner, update := setup(t)

		res, err := f.progress.Update(ctx, UpdateProgressInput{ID: update.ID, ActorID: learner.ID})
		require.NoError(t, err)
		assert.Empty(t, res.Update.Media)
		assert.Equal(t, "first week", res.Update.Content)
		assert.ElementsMatch(t, progressMediaKeys(update.Media), f.blobs.Deletes)
	})

	t.Run("keeping existing media appends new files", func(t *testing.T) {
		t.Parallel()
		f, learner, update := setup(t)

		content := "second week"
		res, err := f.progress.Update(ctx, UpdateProgressInput{
			ID:                update.ID,
			ActorID:           learner.ID,
			Content:           &content,
			KeepExistingMedia: true,
			Media: []storage.Upload{
				testutil.ImageUpload(t, "c.png", 2, 2),
				testutil.VideoUpload("d.mp4"),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "second week", res.Update.Content)
		require.Len(t, res.Update.Media, 4)
		keys := progressMediaKeys(res.Update.Media)
		for _, k := range progressMediaKeys(update.Media) {
			assert.Contains(t, keys, k)
		}
		assert.Empty(t, f.blobs.Deletes)
	})

	t.Run("only the owner may edit or delete", func(t *testing.T) {
		t.Parallel()
		f, _, update := setup(t)
		admin := f.admin(t, "Site", "Admin")

		content := "rewritten"
		_, err := f.progress.Update(ctx, UpdateProgressInput{ID: update.ID, ActorID: admin.ID, Content: &content})
		assertCode(t, err, models.CodeForbidden)
		err = f.progress.Delete(ctx, update.ID, admin.ID)
		assertCode(t, err, models.CodeForbidden)
	})

	t.Run("delete removes rows and files", func(t *testing.T) {
		t.Parallel()
		f, learner, update := setup(t)

		require.NoError(t, f.progress.Delete(ctx, update.ID, learner.ID))
		assert.Zero(t, f.count(t, &models.ProgressUpdate{}))
		assert.Zero(t, f.count(t, &models.ProgressUpdateMedia{}))
		assert.Len(t, f.blobs.Deletes, 2)
		assert.Empty(t, f.blobs.Keys())

		_, err := f.progress.Get(ctx, update.ID)
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("lists by user and plan", func(t *testing.T) {
		t.Parallel()
		f, learner, update := setup(t)

		mine, err := f.progress.ListByUser(ctx, learner.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		byPlan, err := f.progress.ListByPlan(ctx, update.LearningPlanID)
		require.NoError(t, err)
		require.Len(t, byPlan, 1)
		assert.Equal(t, update.ID, byPlan[0].ID)
	})
}

package service

import (
	"context"
	"fmt"

	"cadence/internal/models"
	"cadence/internal/policy"
	"cadence/internal/repository"
	"cadence/internal/storage"

	"golang.org/x/sync/errgroup"
)

const planVideoPrefix = "plans"

// LearningPlanService manages admin-authored learning plans.
type LearningPlanService struct {
	tx          repository.Transactor
	users       repository.UserRepository
	plans       repository.LearningPlanRepository
	enrollments repository.EnrollmentRepository
	updates     repository.ProgressUpdateRepository
	blobs       storage.BlobStore
	policy      policy.Checker
}

type CreatePlanInput struct {
	ActorID     uint
	Title       string
	Description string
	VideoURL    string
	Video       *storage.Upload
}

// UpdatePlanInput changes only the fields that are set. A new Video
// replaces the stored file; RemoveVideo drops it.
type UpdatePlanInput struct {
	PlanID      uint
	ActorID     uint
	Title       *string
	Description *string
	VideoURL    *string
	Video       *storage.Upload
	RemoveVideo bool
}

func NewLearningPlanService(store *repository.Store, blobs storage.BlobStore, checker policy.Checker) *LearningPlanService {
	return &LearningPlanService{
		tx:          store.Tx,
		users:       store.Users,
		plans:       store.Plans,
		enrollments: store.Enrollments,
		updates:     store.ProgressUpdates,
		blobs:       blobs,
		policy:      checker,
	}
}

func validatePlanVideo(u *storage.Upload) error {
	if u == nil {
		return nil
	}
	if mt, ok := models.MediaTypeFor(u.ContentType); !ok || mt != models.MediaTypeVideo {
		return models.NewValidationError(fmt.Sprintf("Learning plan video must be a video file, got %q", u.ContentType))
	}
	return nil
}

func (s *LearningPlanService) stageVideo(ctx context.Context, stage *storage.Stage, u *storage.Upload) (storage.Object, error) {
	obj, err := stage.Put(ctx, planVideoPrefix, *u)
	if err != nil {
		return storage.Object{}, models.NewStorageError("Failed to store learning plan video", err)
	}
	return obj, nil
}

func (s *LearningPlanService) CreatePlan(ctx context.Context, in CreatePlanInput) (*models.LearningPlanView, error) {
	actor, err := loadActor(ctx, s.users, in.ActorID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Check(actor, policy.ActionCreate, policy.Resource{Kind: policy.KindLearningPlan}); err != nil {
		return nil, err
	}
	title := trimmed(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if err := validatePlanVideo(in.Video); err != nil {
		return nil, err
	}

	stage := storage.NewStage(s.blobs)
	defer stage.Abort(ctx)

	plan := &models.LearningPlan{
		Title:       title,
		Description: trimmed(in.Description),
		VideoURL:    trimmed(in.VideoURL),
		CreatedBy:   actor.ID,
	}
	if in.Video != nil {
		obj, err := s.stageVideo(ctx, stage, in.Video)
		if err != nil {
			return nil, err
		}
		plan.VideoFileURL, plan.VideoObjectKey = obj.URL, obj.Key
	}

	if err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.plans.Create(ctx, plan)
	}); err != nil {
		return nil, err
	}
	stage.Commit(ctx)
	return s.view(ctx, plan, actor.ID)
}

func (s *LearningPlanService) UpdatePlan(ctx context.Context, in UpdatePlanInput) (*models.LearningPlanView, error) {
	plan, actor, err := s.authorize(ctx, in.PlanID, in.ActorID, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := validatePlanVideo(in.Video); err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := trimmed(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title is required")
		}
		plan.Title = title
	}
	if in.Description != nil {
		plan.Description = trimmed(*in.Description)
	}
	if in.VideoURL != nil {
		plan.VideoURL = trimmed(*in.VideoURL)
	}

	stage := storage.NewStage(s.blobs)
	defer stage.Abort(ctx)

	oldKey := plan.VideoObjectKey
	switch {
	case in.Video != nil:
		obj, err := s.stageVideo(ctx, stage, in.Video)
		if err != nil {
			return nil, err
		}
		plan.VideoFileURL, plan.VideoObjectKey = obj.URL, obj.Key
	case in.RemoveVideo:
		plan.VideoFileURL, plan.VideoObjectKey = "", ""
	}

	if err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.plans.Update(ctx, plan)
	}); err != nil {
		return nil, err
	}
	if oldKey != plan.VideoObjectKey {
		stage.DeleteLater(oldKey)
	}
	stage.Commit(ctx)
	return s.view(ctx, plan, actor.ID)
}

// DeletePlan refuses while progress updates reference the plan; otherwise it
// removes enrollments and the plan together, then the video file.
func (s *LearningPlanService) DeletePlan(ctx context.Context, planID, actorID uint) error {
	plan, _, err := s.authorize(ctx, planID, actorID, policy.ActionDelete)
	if err != nil {
		return err
	}
	refs, err := s.updates.CountByPlan(ctx, planID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return models.NewConflictError(fmt.Sprintf("Learning plan has %d progress updates and cannot be deleted", refs))
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.enrollments.DeleteByPlan(ctx, planID); err != nil {
			return err
		}
		return s.plans.Delete(ctx, planID)
	})
	if err != nil {
		return err
	}
	stage := storage.NewStage(s.blobs)
	stage.DeleteLater(plan.VideoObjectKey)
	stage.Commit(ctx)
	return nil
}

func (s *LearningPlanService) authorize(ctx context.Context, planID, actorID uint, action policy.Action) (*models.LearningPlan, policy.Actor, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, policy.Actor{}, err
	}
	actor, err := loadActor(ctx, s.users, actorID)
	if err != nil {
		return nil, policy.Actor{}, err
	}
	if err := s.policy.Check(actor, action, policy.Resource{Kind: policy.KindLearningPlan, OwnerID: plan.CreatedBy}); err != nil {
		return nil, policy.Actor{}, err
	}
	return plan, actor, nil
}

func (s *LearningPlanService) GetPlan(ctx context.Context, planID, viewerID uint) (*models.LearningPlanView, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, plan, viewerID)
}

func (s *LearningPlanService) ListPlans(ctx context.Context, viewerID uint) ([]models.LearningPlanView, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, plans, viewerID)
}

func (s *LearningPlanService) ListPlansByCreator(ctx context.Context, creatorID, viewerID uint) ([]models.LearningPlanView, error) {
	if _, err := s.users.GetByID(ctx, creatorID); err != nil {
		return nil, err
	}
	plans, err := s.plans.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, plans, viewerID)
}

func (s *LearningPlanService) view(ctx context.Context, plan *models.LearningPlan, viewerID uint) (*models.LearningPlanView, error) {
	views, err := s.views(ctx, []models.LearningPlan{*plan}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *LearningPlanService) views(ctx context.Context, plans []models.LearningPlan, viewerID uint) ([]models.LearningPlanView, error) {
	planIDs := make([]uint, len(plans))
	creatorIDs := make([]uint, len(plans))
	for i, p := range plans {
		planIDs[i] = p.ID
		creatorIDs[i] = p.CreatedBy
	}

	var (
		counts   map[uint]int64
		enrolled map[uint]bool
		creators map[uint]models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = s.enrollments.CountByPlans(gctx, planIDs)
		return err
	})
	g.Go(func() (err error) {
		enrolled, err = s.enrollments.EnrolledPlanIDs(gctx, viewerID, planIDs)
		return err
	})
	g.Go(func() (err error) {
		creators, err = s.users.GetByIDs(gctx, uniqueIDs(creatorIDs))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make([]models.LearningPlanView, 0, len(plans))
	for _, p := range plans {
		views = append(views, models.LearningPlanView{
			LearningPlan:    p,
			EnrollmentCount: counts[p.ID],
			UserEnrolled:    enrolled[p.ID],
			CreatedByUser:   creatorSummary(creators, p.CreatedBy),
		})
	}
	return views, nil
}

func creatorSummary(users map[uint]models.User, id uint) models.CreatorSummary {
	name := "Unknown"
	if u, ok := users[id]; ok && u.DisplayName() != "" {
		name = u.DisplayName()
	}
	return models.CreatorSummary{ID: id, Name: name}
}

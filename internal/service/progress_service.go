package service

import (
	"context"
	"log/slog"

	"cadence/internal/middleware"
	"cadence/internal/models"
	"cadence/internal/policy"
	"cadence/internal/repository"
	"cadence/internal/storage"
)

const progressMediaPrefix = "progress"

// ProgressUpdateService manages progress updates. Media handling is lenient:
// each file succeeds or fails on its own and the outcome is reported per item.
type ProgressUpdateService struct {
	tx      repository.Transactor
	users   repository.UserRepository
	plans   repository.LearningPlanRepository
	updates repository.ProgressUpdateRepository
	blobs   storage.BlobStore
	policy  policy.Checker
}

type CreateProgressInput struct {
	AuthorID uint
	PlanID   uint
	Content  string
	Media    []storage.Upload
}

// UpdateProgressInput appends Media. Unless KeepExistingMedia is set, the
// current media is removed first, whether or not new files are supplied.
type UpdateProgressInput struct {
	ID                uint
	ActorID           uint
	Content           *string
	Media             []storage.Upload
	KeepExistingMedia bool
}

func NewProgressUpdateService(store *repository.Store, blobs storage.BlobStore, checker policy.Checker) *ProgressUpdateService {
	return &ProgressUpdateService{
		tx:      store.Tx,
		users:   store.Users,
		plans:   store.Plans,
		updates: store.ProgressUpdates,
		blobs:   blobs,
		policy:  checker,
	}
}

// stageMedia returns one result per upload and the media rows for the ones stored.
func (s *ProgressUpdateService) stageMedia(ctx context.Context, stage *storage.Stage, uploads []storage.Upload) ([]models.MediaResult, []models.ProgressUpdateMedia) {
	results := make([]models.MediaResult, len(uploads))
	media := make([]models.ProgressUpdateMedia, 0, len(uploads))
	for i, u := range uploads {
		results[i] = models.MediaResult{Index: i, Filename: u.Filename}

		mt, ok := models.MediaTypeFor(u.ContentType)
		if !ok {
			results[i].Error = "unsupported media type " + u.ContentType
			middleware.Logger.WarnContext(ctx, "progress media rejected",
				slog.String("filename", u.Filename), slog.String("content_type", u.ContentType))
			continue
		}
		obj, err := stage.Put(ctx, progressMediaPrefix, u)
		if err != nil {
			results[i].Error = "failed to store file"
			middleware.Logger.WarnContext(ctx, "progress media upload failed",
				slog.String("filename", u.Filename), slog.String("error", err.Error()))
			continue
		}
		results[i].Stored = true
		media = append(media, models.ProgressUpdateMedia{MediaType: mt, MediaURL: obj.URL, ObjectKey: obj.Key})
	}
	return results, media
}

// attach links stored rows back into their results in order.
func attach(results []models.MediaResult, media []models.ProgressUpdateMedia) {
	j := 0
	for i := range results {
		if results[i].Stored && j < len(media) {
			m := media[j]
			results[i].Media = &m
			j++
		}
	}
}

func (s *ProgressUpdateService) Create(ctx context.Context, in CreateProgressInput) (*models.ProgressUpdateResult, error) {
	if _, err := s.plans.GetByID(ctx, in.PlanID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, in.AuthorID); err != nil {
		return nil, err
	}

	stage := storage.NewStage(s.blobs)
	defer stage.Abort(ctx)
	results, media := s.stageMedia(ctx, stage, in.Media)

	update := &models.ProgressUpdate{UserID: in.AuthorID, LearningPlanID: in.PlanID, Content: trimmed(in.Content)}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.updates.Create(ctx, update); err != nil {
			return err
		}
		for i := range media {
			media[i].ProgressUpdateID = update.ID
		}
		return s.updates.AddMedia(ctx, media)
	})
	if err != nil {
		return nil, err
	}
	stage.Commit(ctx)
	attach(results, media)

	view, err := s.Get(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	return &models.ProgressUpdateResult{Update: view, MediaResults: results}, nil
}

func (s *ProgressUpdateService) Update(ctx context.Context, in UpdateProgressInput) (*models.ProgressUpdateResult, error) {
	update, err := s.authorize(ctx, in.ID, in.ActorID, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}

	stage := storage.NewStage(s.blobs)
	defer stage.Abort(ctx)
	results, media := s.stageMedia(ctx, stage, in.Media)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if in.Content != nil {
			if err := s.updates.UpdateContent(ctx, update.ID, trimmed(*in.Content)); err != nil {
				return err
			}
		}
		if !in.KeepExistingMedia {
			if err := s.updates.DeleteMedia(ctx, update.ID); err != nil {
				return err
			}
		}
		for i := range media {
			media[i].ProgressUpdateID = update.ID
		}
		if err := s.updates.AddMedia(ctx, media); err != nil {
			return err
		}
		if in.Content == nil {
			return s.updates.Touch(ctx, update.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !in.KeepExistingMedia {
		stage.DeleteLater(progressMediaKeys(update.Media)...)
	}
	stage.Commit(ctx)
	attach(results, media)

	view, err := s.Get(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	return &models.ProgressUpdateResult{Update: view, MediaResults: results}, nil
}

// Delete removes media rows and the update, then its files.
func (s *ProgressUpdateService) Delete(ctx context.Context, id, actorID uint) error {
	update, err := s.authorize(ctx, id, actorID, policy.ActionDelete)
	if err != nil {
		return err
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.updates.DeleteMedia(ctx, update.ID); err != nil {
			return err
		}
		return s.updates.Delete(ctx, update.ID)
	})
	if err != nil {
		return err
	}
	stage := storage.NewStage(s.blobs)
	stage.DeleteLater(progressMediaKeys(update.Media)...)
	stage.Commit(ctx)
	return nil
}

func (s *ProgressUpdateService) authorize(ctx context.Context, id, actorID uint, action policy.Action) (*models.ProgressUpdate, error) {
	update, err := s.updates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	actor, err := loadActor(ctx, s.users, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Check(actor, action, policy.Resource{Kind: policy.KindProgressUpdate, OwnerID: update.UserID}); err != nil {
		return nil, err
	}
	return update, nil
}

func progressMediaKeys(media []models.ProgressUpdateMedia) []string {
	keys := make([]string, 0, len(media))
	for _, m := range media {
		keys = append(keys, m.ObjectKey)
	}
	return keys
}

func (s *ProgressUpdateService) Get(ctx context.Context, id uint) (*models.ProgressUpdateView, error) {
	update, err := s.updates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []models.ProgressUpdate{*update})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *ProgressUpdateService) ListByUser(ctx context.Context, userID uint) ([]models.ProgressUpdateView, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	updates, err := s.updates.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, updates)
}

func (s *ProgressUpdateService) ListByPlan(ctx context.Context, planID uint) ([]models.ProgressUpdateView, error) {
	if _, err := s.plans.GetByID(ctx, planID); err != nil {
		return nil, err
	}
	updates, err := s.updates.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, updates)
}

func (s *ProgressUpdateService) views(ctx context.Context, updates []models.ProgressUpdate) ([]models.ProgressUpdateView, error) {
	userIDs := make([]uint, 0, len(updates))
	planIDs := make([]uint, 0, len(updates))
	for _, u := range updates {
		userIDs = append(userIDs, u.UserID)
		planIDs = append(planIDs, u.LearningPlanID)
	}
	users, err := s.users.GetByIDs(ctx, uniqueIDs(userIDs))
	if err != nil {
		return nil, err
	}
	plans, err := s.plans.GetByIDs(ctx, uniqueIDs(planIDs))
	if err != nil {
		return nil, err
	}

	views := make([]models.ProgressUpdateView, 0, len(updates))
	for _, u := range updates {
		if u.Media == nil {
			u.Media = []models.ProgressUpdateMedia{}
		}
		views = append(views, models.ProgressUpdateView{
			ProgressUpdate: u,
			PlanTitle:      plans[u.LearningPlanID].Title,
			User:           summaryOf(users, u.UserID),
		})
	}
	return views, nil
}

package service

import (
	"context"
	"time"

	"cadence/internal/models"
	"cadence/internal/observability"
	"cadence/internal/policy"
	"cadence/internal/repository"
)

// EnrollmentService manages user enrollment in learning plans.
type EnrollmentService struct {
	users       repository.UserRepository
	plans       repository.LearningPlanRepository
	enrollments repository.EnrollmentRepository
	policy      policy.Checker
	now         func() time.Time
}

func NewEnrollmentService(store *repository.Store, checker policy.Checker) *EnrollmentService {
	return &EnrollmentService{
		users:       store.Users,
		plans:       store.Plans,
		enrollments: store.Enrollments,
		policy:      checker,
		now:         time.Now,
	}
}

// Enroll admits a non-admin user once per plan.
func (s *EnrollmentService) Enroll(ctx context.Context, planID, userID uint) (*models.Enrollment, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Check(policy.ActorFor(user), policy.ActionEnroll, policy.Resource{Kind: policy.KindLearningPlan, OwnerID: plan.CreatedBy}); err != nil {
		return nil, err
	}

	if _, err := s.enrollments.Get(ctx, userID, planID); err == nil {
		observability.EnrollmentsTotal.WithLabelValues("duplicate").Inc()
		return nil, models.NewConflictError("User is already enrolled in this learning plan")
	} else if !models.HasCode(err, models.CodeNotFound) {
		return nil, err
	}

	e := &models.Enrollment{UserID: userID, LearningPlanID: planID, EnrolledAt: s.now().UTC()}
	if err := s.enrollments.Create(ctx, e); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			observability.EnrollmentsTotal.WithLabelValues("duplicate").Inc()
		}
		return nil, err
	}
	observability.EnrollmentsTotal.WithLabelValues("enrolled").Inc()
	return e, nil
}

func (s *EnrollmentService) Unenroll(ctx context.Context, planID, userID uint) error {
	if _, err := s.plans.GetByID(ctx, planID); err != nil {
		return err
	}
	removed, err := s.enrollments.Delete(ctx, userID, planID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError("Enrollment for learning plan", planID)
	}
	observability.EnrollmentsTotal.WithLabelValues("unenrolled").Inc()
	return nil
}

// MarkCompleted is idempotent; the first completion time is kept.
func (s *EnrollmentService) MarkCompleted(ctx context.Context, planID, userID uint) (*models.Enrollment, error) {
	e, err := s.enrollments.Get(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if e.Completed {
		return e, nil
	}
	if err := s.enrollments.MarkCompleted(ctx, e.ID, s.now().UTC()); err != nil {
		return nil, err
	}
	observability.EnrollmentsTotal.WithLabelValues("completed").Inc()
	return s.enrollments.Get(ctx, userID, planID)
}

// ListEnrollments returns the user's enrollments newest first with plan headlines.
func (s *EnrollmentService) ListEnrollments(ctx context.Context, userID uint) ([]models.EnrollmentView, error) {
	list, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	planIDs := make([]uint, 0, len(list))
	for _, e := range list {
		planIDs = append(planIDs, e.LearningPlanID)
	}
	plans, err := s.plans.GetByIDs(ctx, uniqueIDs(planIDs))
	if err != nil {
		return nil, err
	}
	views := make([]models.EnrollmentView, 0, len(list))
	for _, e := range list {
		p := plans[e.LearningPlanID]
		views = append(views, models.EnrollmentView{Enrollment: e, PlanTitle: p.Title, PlanDescription: p.Description})
	}
	return views, nil
}

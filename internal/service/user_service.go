package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cadence/internal/middleware"
	"cadence/internal/models"
	"cadence/internal/policy"
	"cadence/internal/repository"
	"cadence/internal/storage"
	"cadence/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles accounts and credentials.
type UserService struct {
	store  *repository.Store
	blobs  storage.BlobStore
	policy policy.Checker
	tokens middleware.TokenConfig
	now    func() time.Time
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UpdateUserInput changes only the fields that are set.
type UpdateUserInput struct {
	UserID            uint
	ActorID           uint
	FirstName         *string
	LastName          *string
	Email             *string
	Password          *string
	Gender            *string
	ProfilePictureURL *string
	ContactNo         *string
	Bio               *string
	DOB               *time.Time
	Role              *models.Role
}

func NewUserService(store *repository.Store, blobs storage.BlobStore, checker policy.Checker, tokens middleware.TokenConfig) *UserService {
	return &UserService{store: store, blobs: blobs, policy: checker, tokens: tokens, now: time.Now}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}

// Register creates a regular user. Admins are provisioned out of band.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(trimmed(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.store.Users.GetByEmail(ctx, email); err == nil {
		return nil, models.NewValidationError("User already exists")
	} else if !models.HasCode(err, models.CodeNotFound) {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	firstName := trimmed(in.FirstName)
	if firstName == "" {
		firstName = "User"
	}
	user := &models.User{
		FirstName: firstName,
		LastName:  trimmed(in.LastName),
		Email:     email,
		Password:  hash,
		Role:      models.RoleUser,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			return nil, models.NewValidationError("User already exists")
		}
		return nil, err
	}
	return s.issue(user)
}

func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.store.Users.GetByEmail(ctx, strings.ToLower(trimmed(email)))
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		middleware.Logger.WarnContext(ctx, "login failed", slog.Uint64("user_id", uint64(user.ID)))
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := middleware.IssueToken(s.tokens, user.ID, s.now())
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.store.Users.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.Users.GetByEmail(ctx, strings.ToLower(trimmed(email)))
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.Users.List(ctx)
}

func (s *UserService) Update(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	actor, err := loadActor(ctx, s.store.Users, in.ActorID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.Users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Check(actor, policy.ActionUpdate, policy.Resource{Kind: policy.KindUser, OwnerID: user.ID}); err != nil {
		return nil, err
	}

	if in.Role != nil && *in.Role != user.Role {
		if !actor.IsAdmin() {
			return nil, models.NewForbiddenError("Only admins can change roles")
		}
		if !in.Role.Valid() {
			return nil, models.NewValidationError(fmt.Sprintf("Unknown role %q", *in.Role))
		}
		user.Role = *in.Role
	}
	if in.Email != nil {
		email := strings.ToLower(trimmed(*in.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Email = email
	}
	setIf(&user.FirstName, in.FirstName)
	setIf(&user.LastName, in.LastName)
	setIf(&user.Gender, in.Gender)
	setIf(&user.ProfilePictureURL, in.ProfilePictureURL)
	setIf(&user.ContactNo, in.ContactNo)
	setIf(&user.Bio, in.Bio)
	if in.DOB != nil {
		user.DOB = in.DOB
	}

	var hash string
	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if hash, err = hashPassword(*in.Password); err != nil {
			return nil, err
		}
	}

	err = s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Users.Update(ctx, user); err != nil {
			return err
		}
		if hash != "" {
			return s.store.Users.UpdatePassword(ctx, user.ID, hash)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.Users.GetByID(ctx, user.ID)
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = trimmed(*v)
	}
}

// Delete removes the account with everything it owns. A user who still
// authors learning plans cannot be deleted.
func (s *UserService) Delete(ctx context.Context, userID, actorID uint) error {
	actor, err := loadActor(ctx, s.store.Users, actorID)
	if err != nil {
		return err
	}
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := s.policy.Check(actor, policy.ActionDelete, policy.Resource{Kind: policy.KindUser, OwnerID: userID}); err != nil {
		return err
	}
	plans, err := s.store.Plans.CountByCreator(ctx, userID)
	if err != nil {
		return err
	}
	if plans > 0 {
		return models.NewConflictError(fmt.Sprintf("User still owns %d learning plans", plans))
	}

	posts, err := s.store.Posts.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	updates, err := s.store.ProgressUpdates.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	var keys []string
	postIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		keys = append(keys, postMediaKeys(p.Media)...)
	}
	for _, u := range updates {
		keys = append(keys, progressMediaKeys(u.Media)...)
	}

	cascade := postCascade{s.store.Posts, s.store.Likes, s.store.Comments, s.store.Notifications}
	err = s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := cascade.delete(ctx, postIDs); err != nil {
			return err
		}
		for _, u := range updates {
			if err := s.store.ProgressUpdates.DeleteMedia(ctx, u.ID); err != nil {
				return err
			}
			if err := s.store.ProgressUpdates.Delete(ctx, u.ID); err != nil {
				return err
			}
		}
		if err := s.store.Likes.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := s.store.Comments.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := s.store.Notifications.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := s.store.Follows.DeleteAllForUser(ctx, userID); err != nil {
			return err
		}
		if err := s.store.Enrollments.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return s.store.Users.Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "user deleted",
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("actor_id", uint64(actorID)),
		slog.Int("blobs", len(keys)))
	stage := storage.NewStage(s.blobs)
	stage.DeleteLater(keys...)
	stage.Commit(ctx)
	return nil
}

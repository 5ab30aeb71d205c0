// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"errors"
	"fmt"
	"log/slog"

	"cadence/internal/middleware"
	"cadence/internal/models"

	"gorm.io/gorm"
)

// CatalogAdminEmail owns the built-in plans when no creator is given.
const CatalogAdminEmail = "catalog@cadence.local"

// Options configuration for the seeder
type Options struct {
	SkipBcrypt bool
	DryRun     bool
	MaxDays    int
	RandomSeed int64
}

// Seeder populates a database with demo data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder returns a seeder over db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// Stats counts what a Seed run produced.
type Stats struct {
	Users       int
	Follows     int
	Posts       int
	Likes       int
	Comments    int
	Plans       int
	Enrollments int
	Progress    int
}

// Seed runs the full demo preset: users, a follow mesh, posts with
// engagement, the plan catalog, enrollments and progress updates.
func (s *Seeder) Seed(numUsers, numPosts int) (Stats, error) {
	var stats Stats
	users, follows, err := s.SeedSocialMesh(numUsers)
	if err != nil {
		return stats, err
	}
	stats.Users, stats.Follows = len(users), follows

	posts, likes, comments, err := s.SeedEngagement(users, numPosts)
	if err != nil {
		return stats, err
	}
	stats.Posts, stats.Likes, stats.Comments = len(posts), likes, comments

	plans, err := s.SeedCatalog(nil)
	if err != nil {
		return stats, err
	}
	stats.Plans = len(plans)

	stats.Enrollments, stats.Progress, err = s.SeedLearning(users, plans)
	if err != nil {
		return stats, err
	}

	middleware.Logger.Info("database seeding completed",
		slog.Int("users", stats.Users), slog.Int("follows", stats.Follows),
		slog.Int("posts", stats.Posts), slog.Int("plans", stats.Plans),
		slog.Int("enrollments", stats.Enrollments), slog.Int("progress_updates", stats.Progress))
	return stats, nil
}

// SeedSocialMesh creates n users and has each follow a handful of the others.
func (s *Seeder) SeedSocialMesh(n int) ([]*models.User, int, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, 0, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}

	follows := 0
	for i, u := range users {
		if len(users) < 2 {
			break
		}
		degree := 1 + s.factory.rng.Intn(min(5, len(users)-1))
		for _, j := range s.factory.rng.Perm(len(users))[:degree+1] {
			if j == i || degree == 0 {
				continue
			}
			if err := s.factory.CreateFollow(u, users[j]); err != nil {
				return nil, 0, fmt.Errorf("create follow: %w", err)
			}
			follows++
			degree--
		}
	}
	return users, follows, nil
}

// SeedEngagement creates numPosts posts spread over users, then likes and
// comments from other users with the matching notifications.
func (s *Seeder) SeedEngagement(users []*models.User, numPosts int) ([]*models.Post, int, int, error) {
	if len(users) == 0 {
		return nil, 0, 0, nil
	}
	rng := s.factory.rng
	posts := make([]*models.Post, 0, numPosts)
	likes, comments := 0, 0
	for i := 0; i < numPosts; i++ {
		author := users[rng.Intn(len(users))]
		post, err := s.factory.CreatePost(author)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("create post: %w", err)
		}
		posts = append(posts, post)

		for _, j := range rng.Perm(len(users))[:rng.Intn(len(users)+1)] {
			fan := users[j]
			if fan.ID == author.ID {
				continue
			}
			if err := s.factory.CreateLike(fan, post); err != nil {
				return nil, 0, 0, fmt.Errorf("create like: %w", err)
			}
			if err := s.factory.CreateNotification(author, fan, models.NotificationLike, post.ID); err != nil {
				return nil, 0, 0, err
			}
			likes++
			if rng.Float32() < 0.3 {
				if _, err := s.factory.CreateComment(fan, post); err != nil {
					return nil, 0, 0, fmt.Errorf("create comment: %w", err)
				}
				if err := s.factory.CreateNotification(author, fan, models.NotificationComment, post.ID); err != nil {
					return nil, 0, 0, err
				}
				comments++
			}
		}
	}
	return posts, likes, comments, nil
}

// SeedCatalog inserts the embedded plan catalog. Plans already present for
// the creator are left alone. A nil creator resolves to the catalog admin.
func (s *Seeder) SeedCatalog(creator *models.User) ([]*models.LearningPlan, error) {
	catalog, err := LoadCatalog()
	if err != nil {
		return nil, err
	}
	if creator == nil {
		if creator, err = s.catalogAdmin(); err != nil {
			return nil, err
		}
	}

	plans := make([]*models.LearningPlan, 0, len(catalog))
	for _, entry := range catalog {
		if !s.factory.opts.DryRun {
			var existing models.LearningPlan
			err := s.db.Where("title = ? AND created_by = ?", entry.Title, creator.ID).First(&existing).Error
			if err == nil {
				plans = append(plans, &existing)
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
		plan, err := s.factory.CreatePlan(creator, entry)
		if err != nil {
			return nil, fmt.Errorf("create plan %q: %w", entry.Title, err)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (s *Seeder) catalogAdmin() (*models.User, error) {
	if !s.factory.opts.DryRun {
		var admin models.User
		err := s.db.Where("email = ?", CatalogAdminEmail).First(&admin).Error
		if err == nil {
			return &admin, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return s.factory.CreateUser(func(u *models.User) {
		u.FirstName, u.LastName = "Cadence", "Catalog"
		u.Email = CatalogAdminEmail
		u.Role = models.RoleAdmin
	})
}

// SeedLearning enrolls non-admin users in random plans and writes progress
// updates for some of those enrollments.
func (s *Seeder) SeedLearning(users []*models.User, plans []*models.LearningPlan) (int, int, error) {
	if len(plans) == 0 {
		return 0, 0, nil
	}
	rng := s.factory.rng
	enrollments, updates := 0, 0
	for _, u := range users {
		if u.IsAdmin() {
			continue
		}
		for _, j := range rng.Perm(len(plans))[:1+rng.Intn(min(3, len(plans)))] {
			plan := plans[j]
			if _, err := s.factory.CreateEnrollment(u, plan); err != nil {
				return 0, 0, fmt.Errorf("create enrollment: %w", err)
			}
			enrollments++
			for k := rng.Intn(3); k > 0; k-- {
				if _, err := s.factory.CreateProgressUpdate(u, plan); err != nil {
					return 0, 0, fmt.Errorf("create progress update: %w", err)
				}
				updates++
			}
		}
	}
	return enrollments, updates, nil
}

// ClearAll deletes every seeded row, children first.
func (s *Seeder) ClearAll() error {
	middleware.Logger.Info("clearing existing data")
	tables := []any{
		&models.Notification{}, &models.Comment{}, &models.Like{},
		&models.PostMedia{}, &models.Post{},
		&models.ProgressUpdateMedia{}, &models.ProgressUpdate{},
		&models.Enrollment{}, &models.LearningPlan{},
		&models.Follow{}, &models.User{},
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, t := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

package repository

import "gorm.io/gorm"

// Store bundles every repository over one database handle.
type Store struct {
	Tx              Transactor
	Users           UserRepository
	Follows         FollowRepository
	Posts           PostRepository
	Likes           LikeRepository
	Comments        CommentRepository
	Notifications   NotificationRepository
	Plans           LearningPlanRepository
	Enrollments     EnrollmentRepository
	ProgressUpdates ProgressUpdateRepository
}

// NewStore builds the gorm-backed repositories.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		Tx:              NewTransactor(db),
		Users:           NewUserRepository(db),
		Follows:         NewFollowRepository(db),
		Posts:           NewPostRepository(db),
		Likes:           NewLikeRepository(db),
		Comments:        NewCommentRepository(db),
		Notifications:   NewNotificationRepository(db),
		Plans:           NewLearningPlanRepository(db),
		Enrollments:     NewEnrollmentRepository(db),
		ProgressUpdates: NewProgressUpdateRepository(db),
	}
}

package seed

import (
	"fmt"
	"math/rand"
	"time"

	"cadence/internal/models"
	"cadence/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password of every seeded account.
const DefaultPassword = "Password123!"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	hash string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed)), nextID: 1000}
}

func (f *Factory) passwordHash() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	if f.hash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		f.hash = string(h)
	}
	return f.hash, nil
}

// backdate spreads timestamps over the last MaxDays days.
func (f *Factory) backdate() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

func (f *Factory) persist(v any, id *uint) error {
	if f.opts.DryRun {
		f.nextID++
		*id = f.nextID
		return nil
	}
	return f.db.Omit("User", "Creator", "Follower", "Followee", "LearningPlan").Create(v).Error
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	person := gofakeit.Person()
	user := &models.User{
		FirstName:         person.FirstName,
		LastName:          person.LastName,
		Email:             fmt.Sprintf("%s.%d@example.com", gofakeit.Username(), gofakeit.Number(1000, 99999)),
		Password:          hash,
		Role:              models.RoleUser,
		Gender:            person.Gender,
		Bio:               gofakeit.Sentence(10),
		ProfilePictureURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.persist(user, &user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post with one to three remote images but does not
// persist it.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		UserID:    author.ID,
		Caption:   gofakeit.Sentence(8),
		CreatedAt: f.backdate(),
	}
	n := 1 + f.rng.Intn(models.MaxPostMedia)
	for i := 0; i < n; i++ {
		id := gofakeit.UUID()
		post.Media = append(post.Media, models.PostMedia{
			Position:  i,
			MediaType: models.MediaTypeImage,
			MediaURL:  fmt.Sprintf("https://picsum.photos/seed/%s/800/800", id),
			ObjectKey: "seed/posts/" + id + ".jpg",
			Width:     800,
			Height:    800,
		})
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and persists a post for author.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	if err := f.persist(post, &post.ID); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment by user on post.
func (f *Factory) CreateComment(user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{PostID: post.ID, UserID: user.ID, Content: gofakeit.Sentence(8)}
	if err := f.persist(comment, &comment.ID); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on post.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	like := &models.Like{PostID: post.ID, UserID: user.ID}
	return f.persist(like, &like.ID)
}

// CreateFollow persists follower -> followee.
func (f *Factory) CreateFollow(follower, followee *models.User) error {
	follow := &models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}
	return f.persist(follow, &follow.ID)
}

// CreateNotification persists an unread notification for recipient.
func (f *Factory) CreateNotification(recipient, sender *models.User, typ models.NotificationType, refID uint) error {
	n := &models.Notification{
		RecipientID: recipient.ID,
		SenderID:    sender.ID,
		Type:        typ,
		ReferenceID: refID,
		Message:     service.NotificationMessage(typ, sender.DisplayName()),
	}
	return f.persist(n, &n.ID)
}

// CreatePlan persists a learning plan authored by creator.
func (f *Factory) CreatePlan(creator *models.User, p CatalogPlan) (*models.LearningPlan, error) {
	plan := &models.LearningPlan{
		Title:       p.Title,
		Description: p.Description,
		VideoURL:    p.VideoURL,
		CreatedBy:   creator.ID,
	}
	if err := f.persist(plan, &plan.ID); err != nil {
		return nil, err
	}
	return plan, nil
}

// CreateEnrollment enrolls user in plan, completing it some of the time.
func (f *Factory) CreateEnrollment(user *models.User, plan *models.LearningPlan) (*models.Enrollment, error) {
	e := &models.Enrollment{UserID: user.ID, LearningPlanID: plan.ID, EnrolledAt: f.backdate()}
	if f.rng.Float32() < 0.25 {
		done := e.EnrolledAt.Add(time.Duration(1+f.rng.Intn(14)) * 24 * time.Hour)
		if done.After(time.Now()) {
			done = time.Now()
		}
		e.Completed = true
		e.CompletedAt = &done
	}
	if err := f.persist(e, &e.ID); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateProgressUpdate persists a progress note by user against plan.
func (f *Factory) CreateProgressUpdate(user *models.User, plan *models.LearningPlan) (*models.ProgressUpdate, error) {
	u := &models.ProgressUpdate{
		UserID:         user.ID,
		LearningPlanID: plan.ID,
		Content:        fmt.Sprintf("Day %d: %s", 1+f.rng.Intn(30), gofakeit.Sentence(10)),
		CreatedAt:      f.backdate(),
	}
	if f.rng.Float32() < 0.5 {
		id := gofakeit.UUID()
		u.Media = []models.ProgressUpdateMedia{{
			MediaType: models.MediaTypeImage,
			MediaURL:  fmt.Sprintf("https://picsum.photos/seed/%s/640/480", id),
			ObjectKey: "seed/progress/" + id + ".jpg",
		}}
	}
	if err := f.persist(u, &u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

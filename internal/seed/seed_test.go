package seed

import (
	"strings"
	"testing"
	"time"

	"cadence/internal/models"
	"cadence/internal/testutil"
)

func TestLoadCatalog(t *testing.T) {
	plans, err := LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(plans) == 0 {
		t.Fatal("expected built-in plans")
	}
	for _, p := range plans {
		if p.Description == "" {
			t.Fatalf("plan %q has no description", p.Title)
		}
	}
}

func TestParseCatalog_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing title": "plans:\n  - description: x\n",
		"duplicate":     "plans:\n  - title: A\n  - title: ' A '\n",
		"malformed":     "plans: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseCatalog([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestBuildPost_DryRun(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, MaxDays: 30, RandomSeed: 42})
	author := &models.User{ID: 1}

	for i := 0; i < 20; i++ {
		p := f.BuildPost(author)
		if len(p.Media) < models.MinPostMedia || len(p.Media) > models.MaxPostMedia {
			t.Fatalf("media count out of range: %d", len(p.Media))
		}
		for pos, m := range p.Media {
			if m.Position != pos {
				t.Fatalf("media %d has position %d", pos, m.Position)
			}
			if !strings.HasPrefix(m.ObjectKey, "seed/posts/") {
				t.Fatalf("unexpected object key %q", m.ObjectKey)
			}
		}
		if time.Since(p.CreatedAt) > 31*24*time.Hour {
			t.Fatalf("created_at too old: %v", p.CreatedAt)
		}
	}

	post, err := f.CreatePost(author)
	if err != nil {
		t.Fatalf("dry-run create: %v", err)
	}
	if post.ID == 0 {
		t.Fatal("expected synthetic ID in dry-run mode")
	}
}

func TestSeed_PopulatesEveryTable(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewSeeder(db, Options{SkipBcrypt: true, RandomSeed: 7})

	stats, err := s.Seed(6, 10)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if stats.Users != 6 || stats.Posts != 10 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	counts := map[string]any{
		"users":       &models.User{},
		"follows":     &models.Follow{},
		"posts":       &models.Post{},
		"post_media":  &models.PostMedia{},
		"plans":       &models.LearningPlan{},
		"enrollments": &models.Enrollment{},
	}
	for name, model := range counts {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			t.Fatalf("count %s: %v", name, err)
		}
		if n == 0 {
			t.Fatalf("expected %s rows", name)
		}
	}

	var admins int64
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins)
	if admins != 1 {
		t.Fatalf("expected exactly the catalog admin, got %d admins", admins)
	}

	var selfLikes int64
	db.Table("likes").Joins("JOIN posts ON posts.id = likes.post_id").
		Where("posts.user_id = likes.user_id").Count(&selfLikes)
	if selfLikes != 0 {
		t.Fatalf("seeded %d self likes", selfLikes)
	}
}

func TestSeedCatalog_Idempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewSeeder(db, Options{SkipBcrypt: true})

	first, err := s.SeedCatalog(nil)
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	second, err := s.SeedCatalog(nil)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("catalog size changed: %d then %d", len(first), len(second))
	}

	var n int64
	db.Model(&models.LearningPlan{}).Count(&n)
	if n != int64(len(first)) {
		t.Fatalf("expected %d plans, got %d", len(first), n)
	}
}

func TestClearAll(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewSeeder(db, Options{SkipBcrypt: true, RandomSeed: 3})
	if _, err := s.Seed(4, 4); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.ClearAll(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	var n int64
	db.Model(&models.User{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected no users, got %d", n)
	}
}

// Command seed populates the database with demo users, posts and learning plans.
package main

import (
	"flag"
	"log"

	"cadence/internal/config"
	"cadence/internal/database"
	"cadence/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", false, "Delete existing rows before seeding")
	catalogOnly := flag.Bool("catalog", false, "Only seed the built-in learning plans")
	fast := flag.Bool("fast", false, "Skip bcrypt for seeded passwords (local development only)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{SkipBcrypt: *fast})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if *catalogOnly {
		plans, err := s.SeedCatalog(nil)
		if err != nil {
			log.Fatalf("Catalog seeding failed: %v", err)
		}
		log.Printf("%d learning plans available", len(plans))
		return
	}

	stats, err := s.Seed(*numUsers, *numPosts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %+v", stats)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}

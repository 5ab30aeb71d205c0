// Command migrate applies the database schema.
package main

import (
	"fmt"
	"log"

	"cadence/internal/config"
	"cadence/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	// Connect already migrates outside production.
	if cfg.IsProduction() {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}
	log.Println("schema is up to date")
	return nil
}

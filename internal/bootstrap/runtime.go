// Package bootstrap wires the process-wide runtime: database, cache, blob
// storage and the development root admin.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cadence/internal/cache"
	"cadence/internal/config"
	"cadence/internal/database"
	"cadence/internal/middleware"
	"cadence/internal/models"
	"cadence/internal/seed"
	"cadence/internal/storage"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedCatalog bool
}

// Runtime is everything the server needs that outlives a request.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Blobs storage.BlobStore
}

// InitRuntime connects to the database and Redis, selects the blob store and
// optionally seeds the learning-plan catalog.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// A nil client disables caching and rate limiting.
	cache.InitRedis(cfg.RedisURL)

	blobs, err := NewBlobStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store init failed: %w", err)
	}

	if err := ensureDevRootAdmin(cfg, db); err != nil {
		return nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	if opts.SeedCatalog {
		if _, err := seed.NewSeeder(db, seed.Options{}).SeedCatalog(nil); err != nil {
			return nil, fmt.Errorf("failed to seed plan catalog: %w", err)
		}
	}

	return &Runtime{DB: db, Redis: cache.GetClient(), Blobs: blobs}, nil
}

// NewBlobStore returns the store named by STORAGE_DRIVER.
func NewBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	if cfg.StorageDriver == "minio" {
		store, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func ensureDevRootAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || cfg.IsProduction() {
		return nil
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		return nil
	}
	if cfg.DevRootPassword == "" {
		return errors.New("DEV_ROOT_PASSWORD must be set when DEV_ROOT_EMAIL is")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevRootPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("email = ?", email).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			root = models.User{
				FirstName: "Root",
				LastName:  "Admin",
				Email:     email,
				Password:  string(hashed),
				Role:      models.RoleAdmin,
			}
			return tx.Create(&root).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&models.User{}).Where("id = ?", root.ID).
				Updates(map[string]any{"role": models.RoleAdmin, "password": string(hashed)}).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development root admin ensured", slog.String("email", email))
	return nil
}

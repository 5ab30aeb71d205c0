// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"log/slog"
	"time"

	"cadence/internal/config"
	"cadence/internal/middleware"
	"cadence/internal/models"
	"cadence/internal/policy"
	"cadence/internal/repository"
	"cadence/internal/service"
	"cadence/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	blobs          storage.BlobStore
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         middleware.TokenConfig

	users         *service.UserService
	follows       *service.FollowService
	notifications *service.NotificationService
	posts         *service.PostService
	likes         *service.LikeService
	comments      *service.CommentService
	progress      *service.ProgressUpdateService
	plans         *service.LearningPlanService
	enrollments   *service.EnrollmentService
}

// NewServer creates a Server using already-initialized dependencies. The
// bootstrap layer owns connecting to the database, Redis and the blob store.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, blobs storage.BlobStore) *Server {
	store := repository.NewStore(db)
	checker := policy.NewChecker()
	tokens := middleware.TokenConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience}

	notifier := service.NewNotificationService(store, checker)
	feed := service.NewFeedService(store)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		blobs:          blobs,
		promMiddleware: middleware.InitMetrics("cadence-api"),
		tokens:         tokens,
		users:          service.NewUserService(store, blobs, checker, tokens),
		follows:        service.NewFollowService(store, notifier),
		notifications:  notifier,
		posts:          service.NewPostService(store, feed, blobs, checker),
		likes:          service.NewLikeService(store, notifier),
		comments:       service.NewCommentService(store, feed, notifier, checker),
		progress:       service.NewProgressUpdateService(store, blobs, checker),
		plans:          service.NewLearningPlanService(store, blobs, checker),
		enrollments:    service.NewEnrollmentService(store, checker),
	}
}

// App builds the fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Cadence API",
		BodyLimit: s.config.MaxUploadBytes(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: fiberErrorCode(fe.Code)})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// Ahead of the limiter and routes so rejections still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	if local, ok := s.blobs.(*storage.LocalStore); ok {
		app.Static("/uploads", local.Root(), fiber.Static{ByteRange: true})
	}

	writes := s.config.RateLimitWrites
	if writes <= 0 {
		writes = 30
	}
	window := time.Duration(s.config.RateLimitWindowSecond) * time.Second
	if window <= 0 {
		window = time.Minute
	}
	writeLimit := func(name string) fiber.Handler {
		return middleware.RateLimit(s.redis, writes, window, name)
	}

	api := app.Group("/api/v1")
	api.Get("/health/live", s.LivenessCheck)
	api.Get("/health/ready", s.ReadinessCheck)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	required := s.AuthRequired()
	viewer := s.OptionalViewer()

	// Specific /:id/:resource routes are registered before the generic /:id.
	users := api.Group("/users")
	users.Get("/", required, s.ListUsers)
	users.Get("/email/:email", required, s.GetUserByEmail)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Get("/:id/follow-counts", s.GetFollowCounts)
	users.Get("/:id/is-following/:targetId", s.IsFollowing)
	users.Post("/:id/follow", required, writeLimit("follow"), s.FollowUser)
	users.Delete("/:id/follow", required, s.UnfollowUser)
	users.Get("/:id", s.GetUser)
	users.Put("/:id", required, s.UpdateUser)
	users.Delete("/:id", required, s.DeleteUser)

	posts := api.Group("/posts")
	posts.Get("/", viewer, s.ListPosts)
	posts.Get("/feed", required, s.GetFollowingFeed)
	posts.Get("/user/:userId", viewer, s.ListPostsByUser)
	posts.Post("/", required, writeLimit("create_post"), s.CreatePost)
	posts.Post("/:id/likes", required, s.LikePost)
	posts.Delete("/:id/likes", required, s.UnlikePost)
	posts.Get("/:id/likes", s.ListLikes)
	posts.Get("/:id/likes/count", s.LikeCount)
	posts.Get("/:id/likes/check", required, s.HasLiked)
	posts.Get("/:id/comments", s.ListComments)
	posts.Get("/:id/comments/count", s.CommentCount)
	posts.Post("/:id/comments", required, writeLimit("create_comment"), s.CreateComment)
	posts.Get("/:id", viewer, s.GetPost)
	posts.Put("/:id", required, s.UpdatePost)
	posts.Delete("/:id", required, s.DeletePost)

	comments := api.Group("/comments")
	comments.Get("/:id", s.GetComment)
	comments.Put("/:id", required, s.UpdateComment)
	comments.Delete("/:id", required, s.DeleteComment)

	progress := api.Group("/progress-updates")
	progress.Post("/", required, writeLimit("create_progress"), s.CreateProgressUpdate)
	progress.Get("/user/:userId", s.ListProgressByUser)
	progress.Get("/:id", s.GetProgressUpdate)
	progress.Put("/:id", required, s.UpdateProgressUpdate)
	progress.Delete("/:id", required, s.DeleteProgressUpdate)

	plans := api.Group("/learning-plans")
	plans.Get("/", viewer, s.ListPlans)
	plans.Get("/creator/:userId", viewer, s.ListPlansByCreator)
	plans.Post("/", required, s.CreatePlan)
	plans.Get("/:id/progress-updates", s.ListProgressByPlan)
	plans.Post("/:id/enroll", required, s.Enroll)
	plans.Delete("/:id/enroll", required, s.Unenroll)
	plans.Post("/:id/complete", required, s.MarkCompleted)
	plans.Get("/:id", viewer, s.GetPlan)
	plans.Put("/:id", required, s.UpdatePlan)
	plans.Delete("/:id", required, s.DeletePlan)

	api.Get("/enrollments/me", required, s.MyEnrollments)

	notifications := api.Group("/notifications", required)
	notifications.Get("/", s.ListNotifications)
	notifications.Get("/unread-count", s.UnreadCount)
	notifications.Put("/read-all", s.MarkAllRead)
	notifications.Put("/:id/read", s.MarkRead)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and cache health. Redis is optional: an
// absent client degrades caching and rate limiting but not readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	s.app = s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the HTTP server and closes the database and
// Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}
	middleware.Logger.Info("server shutdown complete")
	return nil
}

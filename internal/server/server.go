// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"pinkbook/internal/config"
	"pinkbook/internal/kvstore"
	"pinkbook/internal/middleware"
	"pinkbook/internal/models"
	"pinkbook/internal/repository"
	"pinkbook/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	kv             kvstore.Store
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	userDir    repository.UserDirectory
	postRepo   repository.PostRepository
	imageRepo  repository.ImageRepository
	profile    repository.ProfileStore
	feedSvc    *service.FeedService
	profileSvc *service.ProfileService
}

// OpenStore opens the key-value backend selected by the configuration. The
// returned redis client is non-nil only for the redis backend and is shared
// with the rate limiter.
func OpenStore(cfg *config.Config) (kvstore.Store, *redis.Client, error) {
	switch cfg.KVBackend {
	case config.KVBackendSQLite:
		store, err := kvstore.OpenSQLite(cfg.KVSQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, nil, nil
	case config.KVBackendPostgres:
		store, err := kvstore.OpenPostgres(cfg.KVPostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, nil, nil
	case config.KVBackendRedis:
		store, err := kvstore.OpenRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("opening redis store: %w", err)
		}
		return store, store.Client(), nil
	case config.KVBackendMemory:
		return kvstore.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown KV_BACKEND %q", cfg.KVBackend)
	}
}

// NewServer creates a new server instance, opening the key-value backend
// selected by the configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	kv, redisClient, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, kv, redisClient), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes the store itself.
// redisClient may be nil; rate limiting then fails open.
func NewServerWithDeps(cfg *config.Config, kv kvstore.Store, redisClient *redis.Client) *Server {
	middleware.InitMiddleware(cfg)

	imageRepo := repository.NewImageRepository(kv, repository.ImageConfig{
		Encoded: cfg.ImageStorageMode == config.ImageModeEncoded,
		Dir:     cfg.ImageDir,
		MaxDim:  cfg.EncodedImageMaxDim,
	})
	postRepo := repository.NewPostRepository(kv)
	userDir := repository.NewUserDirectory(kv)
	profile := repository.NewProfileStore(kv, imageRepo, postRepo)

	return &Server{
		config:         cfg,
		kv:             kv,
		redis:          redisClient,
		promMiddleware: fiberprometheus.New("pinkbook"),
		userDir:        userDir,
		postRepo:       postRepo,
		imageRepo:      imageRepo,
		profile:        profile,
		feedSvc:        service.NewFeedService(postRepo, imageRepo),
		profileSvc:     service.NewProfileService(profile, imageRepo),
	}
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate the request ID into the request context
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS must run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they are handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Pinkbook Backend Metrics Dashboard",
	}))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public post routes (browse/search)
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/:id", s.GetPost)

	// Public image retrieval (references are stored inside posts/profile)
	api.Get("/images/view", s.ViewImage)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	protected.Post("/posts", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_post"), s.CreatePost)

	protected.Post("/images", middleware.RateLimit(
		s.redis, 20, time.Minute, "upload_image"), s.UploadImage)

	profile := protected.Group("/profile")
	profile.Get("/", s.GetProfile)
	profile.Put("/", s.UpdateProfile)
	profile.Get("/posts", s.GetProfilePosts)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. The store is probed with a
// read of a known key; ErrNotFound still means the store answered.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if _, err := s.kv.Get(ctx, "users"); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		storeStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store": storeStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName:   "Pinkbook API",
		BodyLimit: s.config.ImageMaxUploadSizeMB * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if closer, ok := s.kv.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Printf("error closing store: %v", err)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

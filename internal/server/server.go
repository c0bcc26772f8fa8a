// Package server contains the HTTP handlers and middleware chain for the exercise tracker API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "exercisetracker/docs" // swagger docs
	"exercisetracker/internal/bootstrap"
	"exercisetracker/internal/config"
	"exercisetracker/internal/events"
	"exercisetracker/internal/middleware"
	"exercisetracker/internal/models"
	"exercisetracker/internal/repository"
	"exercisetracker/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	runtime        *bootstrap.Runtime
	userRepo       repository.UserRepository
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userService    *service.UserService
}

// NewServer connects the runtime described by cfg and builds a server on top of it.
// The server owns the runtime and releases it in Shutdown.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := NewServerWithDeps(cfg, rt.Users, rt.Redis, rt.Publisher)
	s.runtime = rt
	return s, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when the caller owns the store, Redis and publisher lifecycles.
func NewServerWithDeps(cfg *config.Config, userRepo repository.UserRepository, redisClient *redis.Client, publisher events.Publisher) *Server {
	return &Server{
		config:         cfg,
		userRepo:       userRepo,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("exercisetracker-api"),
		userService:    service.NewUserService(userRepo, publisher),
	}
}

// NewApp builds the Fiber application with the full middleware chain and all routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Exercise Tracker API",
		BodyLimit:    1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler renders errors that escaped a handler in the same JSON shape as handled ones.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Propagate request ID into the user context for the logger
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	if s.config != nil && s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := "*"
	if s.config != nil && s.config.AllowedOrigins != "" {
		origins = s.config.AllowedOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Home)

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Exercise Tracker Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	users := api.Group("/users")
	users.Post("/", middleware.RateLimit(s.redis, 30, time.Minute, "create_user"), s.CreateUser)
	users.Get("/", s.GetAllUsers)
	users.Post("/:_id/exercises", middleware.RateLimit(s.redis, 60, time.Minute, "add_exercise"), s.AddExercise)
	users.Get("/:_id/logs", s.GetUserLogs)
}

// Home handles GET /
func (s *Server) Home(c *fiber.Ctx) error {
	return c.SendString("Exercise Tracker API is running")
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests.
// The store is required; Redis is optional and only reported.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if err := s.userRepo.Ping(ctx); err != nil {
		storeStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port until Shutdown is called.
// The app is built on first use unless NewApp was called already.
func (s *Server) Start() error {
	app := s.app
	if app == nil {
		app = s.NewApp()
	}
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	if err := app.Listen(":" + s.config.Port); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}

	// Flushes pending events and closes the store and Redis connections.
	if s.runtime != nil {
		if err := s.runtime.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close runtime: %w", err))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}

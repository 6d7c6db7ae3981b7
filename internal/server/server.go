// Package server contains the HTTP handlers and routing for the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "nestling/docs" // swagger docs
	"nestling/internal/bootstrap"
	"nestling/internal/config"
	"nestling/internal/middleware"
	"nestling/internal/models"
	"nestling/internal/repository"
	"nestling/internal/service"
	"nestling/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	appName          = "Nestling API"
	defaultBodyLimit = 12 * 1024 * 1024
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	articles  *service.ArticleService
	events    *service.EventService
	comments  *service.CommentService
	users     *service.UserService
	refs      *service.ReferenceService
	calendars *service.CalendarService
}

// NewServer initializes the runtime, connects the blob store and builds a server.
func NewServer(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedReference: true})
	if err != nil {
		return nil, err
	}

	store, err := storage.NewMinioStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, store), nil
}

// NewServerWithDeps builds a server from already-initialized dependencies.
// Tests and the bootstrap layer use it.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Store) *Server {
	middleware.InitMiddleware(cfg)

	paging := service.NewPaging(cfg)
	media := service.NewMediaService(cfg)

	articleRepo := repository.NewArticleRepository(db)
	eventRepo := repository.NewEventRepository(db)
	userRepo := repository.NewUserRepository(db)
	refRepo := repository.NewReferenceRepository(db)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: middleware.InitMetrics("nestling-api"),
		articles:       service.NewArticleService(articleRepo, userRepo, refRepo, store, paging),
		events:         service.NewEventService(eventRepo, userRepo, refRepo, store, paging),
		comments:       service.NewCommentService(repository.NewCommentRepository(db), articleRepo, userRepo, store),
		users:          service.NewUserService(userRepo, refRepo, store, media, paging),
		refs:           service.NewReferenceService(refRepo, paging),
		calendars:      service.NewCalendarService(repository.NewCalendarRepository(db), userRepo, store, media),
	}
}

// NewApp builds the fiber application with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := defaultBodyLimit
	if s.config.ImageMaxUploadSizeMB > 0 {
		bodyLimit = (s.config.ImageMaxUploadSizeMB + 2) * 1024 * 1024
	}

	app := fiber.New(fiber.Config{
		AppName:   appName,
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			return respondError(c, err)
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    headerCountPage + ", " + headerCountItem,
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
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

// Start serves on the configured port until Shutdown.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops the HTTP listener and closes the database and Redis.
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

	middleware.Logger.Info("Server shutdown complete")
	return nil
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and cache health. The cache is optional, so
// only the database decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
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
	} else if redisStatus == "unhealthy" {
		overall = "degraded"
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

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	auth := middleware.AuthRequired
	optional := middleware.OptionalAuth
	can := middleware.RequireCapability

	// Define static paths before the /:uuid routes that would swallow them.
	articles := api.Group("/articles")
	articles.Post("/", auth, can(models.CapManageContent), s.CreateArticle)
	articles.Get("/page", s.ListArticles)
	articles.Get("/page/by-user", auth, s.ListLikedArticles)
	articles.Get("/search", middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.SearchArticles)
	articles.Get("/:uuid/likes", optional, s.GetArticleLikes)
	articles.Post("/:uuid/likes", auth, s.LikeArticle)
	articles.Delete("/:uuid/likes", auth, s.UnlikeArticle)
	articles.Get("/:uuid/comments", s.ListComments)
	articles.Post("/:uuid/comments", auth,
		middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.AddComment)
	articles.Get("/:uuid", s.GetArticle)
	articles.Put("/:uuid", auth, can(models.CapManageContent), s.UpdateArticle)
	articles.Delete("/:uuid", auth, can(models.CapManageContent), s.DeleteArticle)

	api.Delete("/comments/:uuid", auth, s.DeleteComment)

	events := api.Group("/events")
	events.Get("/states", s.ListEventStates)
	events.Post("/", auth, can(models.CapManageContent), s.CreateEvent)
	events.Get("/page", s.ListEvents)
	events.Get("/page/by-user", auth, s.ListRegisteredEvents)
	events.Get("/search", middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.SearchEvents)
	events.Get("/:uuid/registrations", optional, s.GetEventRegistrations)
	events.Post("/:uuid/registrations", auth, s.RegisterForEvent)
	events.Delete("/:uuid/registrations/:userUUID", auth, can(models.CapManageContent), s.RemoveEventRegistrant)
	events.Delete("/:uuid/registrations", auth, s.UnregisterFromEvent)
	events.Get("/:uuid", s.GetEvent)
	events.Put("/:uuid", auth, can(models.CapManageContent), s.UpdateEvent)
	events.Delete("/:uuid", auth, can(models.CapManageContent), s.DeleteEvent)

	users := api.Group("/users", auth)
	users.Get("/types", s.ListUserTypes)
	users.Post("/", can(models.CapManageUsers), s.CreateUser)
	users.Get("/page", can(models.CapManageUsers), s.ListUsers)
	users.Get("/search", can(models.CapManageUsers), s.SearchUsers)
	users.Put("/me/password", s.ChangePassword)
	users.Post("/me/avatar", middleware.RateLimit(s.redis, 10, time.Minute, "avatar"), s.UploadAvatar)
	users.Get("/:uuid", s.GetUser)
	users.Put("/:uuid", s.UpdateUser)
	users.Delete("/:uuid", can(models.CapManageUsers), s.DeleteUser)

	env := api.Group("/env")
	manageRef := []fiber.Handler{auth, can(models.CapManageReference)}
	env.Get("/cities", s.ListCities)
	env.Post("/cities", append(manageRef, s.CreateCity)...)
	env.Get("/cities/:id", s.GetCity)
	env.Put("/cities/:id", append(manageRef, s.UpdateCity)...)
	env.Get("/type-articles", s.ListTypeArticles)
	env.Post("/type-articles", append(manageRef, s.CreateTypeArticle)...)
	env.Get("/type-articles/:id", s.GetTypeArticle)
	env.Put("/type-articles/:id", append(manageRef, s.UpdateTypeArticle)...)
	env.Get("/tags/search", s.SearchTags)
	env.Get("/tags", s.ListTags)
	env.Post("/tags", append(manageRef, s.CreateTag)...)
	env.Get("/tags/:id", s.GetTag)
	env.Put("/tags/:id", append(manageRef, s.UpdateTag)...)

	calendar := api.Group("/calendar", auth)
	calendar.Get("/me", s.GetMyCalendar)
	calendar.Post("/", s.CreateCalendar)
	calendar.Post("/:uuid/entries", s.AddCalendarEntry)
	calendar.Put("/:uuid/entries/:date", s.UpdateCalendarEntry)
	calendar.Delete("/:uuid/entries/:date", s.DeleteCalendarEntry)
}

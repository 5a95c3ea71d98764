// Package app assembles the HTTP server from configuration and stores.
package app

import (
	"fmt"
	"time"

	"wellness/internal/config"
	"wellness/internal/handlers"
	"wellness/internal/middleware"
	"wellness/internal/repositories"
	"wellness/internal/services"
	"wellness/pkg/blobstore"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Dependencies are the stores and side channels the server runs on.
// Photos and Events may be nil; Now defaults to time.Now.
type Dependencies struct {
	Users   repositories.UserRepository
	Records repositories.DailyRecordRepository
	Goals   repositories.GoalsRepository
	Photos  blobstore.Store
	Events  services.EventPublisher
	Now     func() time.Time
	// Quiet disables the request logger.
	Quiet bool
}

// New builds the fiber app with every route registered. The returned
// TokenService signs with the configured secret.
func New(cfg *config.Config, deps Dependencies) (*fiber.App, *services.TokenService, error) {
	hasher, err := services.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid bcrypt cost: %w", err)
	}
	tokens, err := services.NewTokenService(cfg.JWTSecret, deps.Now)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid token configuration: %w", err)
	}
	calendar := services.NewCalendar(cfg.Location, deps.Now)

	// --- Initialize Services ---
	authService := services.NewAuthService(deps.Users, hasher, tokens)
	recordService := services.NewRecordService(deps.Records, deps.Photos, deps.Events, calendar)
	goalsService := services.NewGoalsService(deps.Goals)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	recordHandler := handlers.NewRecordHandler(recordService)
	goalsHandler := handlers.NewGoalsHandler(goalsService)

	app := fiber.New(fiber.Config{
		AppName:               "wellness",
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: true,
	})

	// --- Middleware ---
	app.Use(recover.New())
	if !deps.Quiet {
		app.Use(logger.New())
	}

	app.Get("/health", handlers.HandleHealth)

	api := app.Group("/api")
	// Authentication routes (public)
	authHandler.RegisterRoutes(api)

	// Protected routes (require JWT authentication)
	auth := middleware.AuthRequired(tokens)
	protected := api.Group("", auth)
	authHandler.RegisterProtectedRoutes(protected)
	recordHandler.RegisterRoutes(protected)
	goalsHandler.RegisterRoutes(protected)

	app.Post("/daily-entry", auth, recordHandler.HandleDailyEntry)

	return app, tokens, nil
}

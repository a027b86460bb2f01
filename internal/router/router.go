package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/kdiary/backend/internal/auth"
	"github.com/anonto42/kdiary/backend/internal/handlers"
	"github.com/anonto42/kdiary/backend/internal/middleware"
	"github.com/anonto42/kdiary/backend/internal/repositories"
	"github.com/anonto42/kdiary/backend/pkg/logger"
	"github.com/anonto42/kdiary/backend/validators"
)

// Deps are the services the routes are wired to
type Deps struct {
	PostRepo repositories.PostRepository
	Sessions *auth.SessionManager
	Strategy auth.Strategy
	Log      logger.Logger

	// APIRequireAuth puts the mutating /api/posts routes behind an admin session
	APIRequireAuth bool
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Deps) {
	log := deps.Log.WithComponent("router")
	e.Validator = validators.NewValidator()

	// The gate runs before routing so unknown /admin paths redirect too
	e.Pre(middleware.AdminGate(deps.Sessions, deps.Log))

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "K-Diary"})
	})

	// --- Sign-in and sign-out ---
	authHandler := handlers.NewAuthHandler(deps.Strategy, deps.Sessions, deps.Log)
	authHandler.RegisterAuthRoutes(e)
	log.Info("Auth routes configured.", "strategy", deps.Strategy.Name())

	// --- Post API ---
	api := e.Group("/api")
	var writeGuard []echo.MiddlewareFunc
	if deps.APIRequireAuth {
		writeGuard = append(writeGuard, middleware.RequireAdmin(deps.Sessions, deps.Log))
	} else {
		log.Warn("Post writes are open to anonymous clients")
	}
	postHandler := handlers.NewPostHandler(deps.PostRepo, deps.Log)
	postHandler.RegisterPostRoutes(api, writeGuard...)
	log.Info("Post routes configured.")

	// --- Admin pages (behind the gate) ---
	adminHandler := handlers.NewAdminHandler(deps.PostRepo, deps.Log)
	adminHandler.RegisterAdminRoutes(e.Group(auth.AdminHome))
	log.Info("Admin routes configured.")
}

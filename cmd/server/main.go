package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/kdiary/backend/internal/auth"
	"github.com/anonto42/kdiary/backend/internal/repositories"
	"github.com/anonto42/kdiary/backend/internal/router"
	"github.com/anonto42/kdiary/backend/pkg/config"
	"github.com/anonto42/kdiary/backend/pkg/firebase"
	"github.com/anonto42/kdiary/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Opts{
		Env:       cfg.App.Env,
		Level:     cfg.App.LogLevel,
		SentryDSN: cfg.App.SentryDSN,
	})
	defer logger.Flush()

	if err := run(cfg, log); err != nil {
		log.Error("Server stopped", "error", err)
		logger.Flush()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	store, err := newPostStore(ctx, cfg, db)
	if err != nil {
		return err
	}

	sessionOpts := []auth.SessionOption{auth.WithSecureCookie(cfg.Auth.CookieSecure)}
	if db.Redis != nil {
		sessionOpts = append(sessionOpts, auth.WithRevoker(auth.NewRedisRevoker(db.Redis)))
	}
	sessions := auth.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionMaxAge, sessionOpts...)

	var verifier auth.TokenVerifier
	if cfg.Auth.Strategy == config.StrategyFirebase {
		client, err := firebase.NewTokenVerifier(ctx, cfg.Auth.FirebaseCredentialsPath, log)
		if err != nil {
			return fmt.Errorf("failed to initialize Firebase: %w", err)
		}
		verifier = client
	}
	strategy, err := auth.NewStrategy(cfg, verifier)
	if err != nil {
		return err
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Setup global middleware
	config.SetupMiddleware(e, log)

	// Setup routes and dependencies
	router.SetupRoutes(e, router.Deps{
		PostRepo:       repositories.NewPostRepository(store),
		Sessions:       sessions,
		Strategy:       strategy,
		Log:            log,
		APIRequireAuth: cfg.Auth.APIRequireAuth,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "port", cfg.App.Port, "store", cfg.Store.Backend, "auth", strategy.Name())
		if err := e.Start(":" + cfg.App.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newPostStore opens the store selected by STORE_BACKEND
func newPostStore(ctx context.Context, cfg *config.Config, db *config.DB) (repositories.PostStore, error) {
	switch cfg.Store.Backend {
	case config.BackendMongo:
		store := repositories.NewMongoPostStore(db.MongoDB)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		return store, nil
	case config.BackendPostgres:
		return repositories.NewPostgresPostStore(db.Postgres), nil
	default:
		store, err := repositories.NewFilePostStore(cfg.Store.ContentDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open content directory: %w", err)
		}
		return store, nil
	}
}

// Package app assembles recipebox: configuration, database, migrations,
// object store and the services the form sessions are wired with.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"recipebox/internal/config"
	"recipebox/internal/form"
	"recipebox/internal/identity"
	"recipebox/internal/listcache"
	"recipebox/internal/logging"
	"recipebox/internal/migrations"
	"recipebox/internal/recipes"
	"recipebox/internal/storage"
	"recipebox/internal/uploads"
)

const listCacheSize = 128

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	store   *storage.S3Store
	recipes *recipes.Service
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := migrations.Run(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	cache, err := listcache.New[[]*recipes.Summary](listCacheSize)
	if err != nil {
		return nil, fmt.Errorf("cache init error: %w", err)
	}

	svc := recipes.NewService(db, store, cache, logger)

	return &App{config: cfg, logger: logger, db: db, store: store, recipes: svc}, nil
}

// Recipes exposes the persistence service for feed reads and one-shot
// mutations.
func (a *App) Recipes() *recipes.Service {
	return a.recipes
}

// AuthenticateToken verifies an access token and returns a context carrying
// the authenticated user.
func (a *App) AuthenticateToken(ctx context.Context, token string) (context.Context, error) {
	userID, err := identity.UserIDFromToken(token, []byte(a.config.SecretKey))
	if err != nil {
		return nil, err
	}
	return identity.WithUserID(ctx, userID), nil
}

// IssueTokens creates an access/refresh token pair for userID.
func (a *App) IssueTokens(userID string) (*identity.TokenPair, error) {
	return identity.NewTokenPair(userID, []byte(a.config.SecretKey),
		a.config.AccessTokenValidityDuration, a.config.RefreshTokenValidityDuration)
}

// NewFormSessionFromContext starts a create-mode session for the user
// carried in ctx. Without an authenticated user the session is still
// usable for editing; its Submit refuses to run.
func (a *App) NewFormSessionFromContext(ctx context.Context) *form.Session {
	userID, _ := identity.UserIDFromContext(ctx)
	return a.NewFormSession(userID)
}

// Submit runs one submission attempt under the configured upload deadline.
func (a *App) Submit(ctx context.Context, s *form.Session, data *form.Data) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.UploadTimeout)
	defer cancel()
	return s.Submit(ctx, data)
}

// NewFormSession starts a create-mode form session for userID.
func (a *App) NewFormSession(userID string) *form.Session {
	return form.NewSession(a.logger, a.newUploader(), a.recipes, userID)
}

// NewEditFormSession starts an edit-mode session over an existing recipe.
func (a *App) NewEditFormSession(userID, recipeID string, initial *form.Data) *form.Session {
	return form.NewEditSession(a.logger, a.newUploader(), a.recipes, userID, recipeID, initial)
}

func (a *App) newUploader() *uploads.Batch {
	return uploads.NewBatch(storage.NewImageUploader(a.store), a.store, a.logger)
}

// Run verifies connectivity and then blocks until the process receives a
// termination signal.
func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}

	a.logger.Info(ctx, "recipebox ready",
		"s3_endpoint", a.config.S3BaseEndpoint)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case <-ctx.Done():
	case <-sigs:
	}

	a.logger.Info(ctx, "shutting down")
	return nil
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/internal/access"
	"github.com/solidoro/bmw-admin/internal/cache"
	"github.com/solidoro/bmw-admin/internal/config"
	"github.com/solidoro/bmw-admin/internal/database"
	"github.com/solidoro/bmw-admin/internal/handler"
	"github.com/solidoro/bmw-admin/internal/middleware"
	"github.com/solidoro/bmw-admin/internal/repository"
	"github.com/solidoro/bmw-admin/internal/service"
	"github.com/solidoro/bmw-admin/internal/worker"
	"github.com/solidoro/bmw-admin/internal/workspace"
	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

// main is the entrypoint for the building-materials admin gateway.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("catalog", cfg.Catalog.BaseURL).Msg("starting bmw admin gateway")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4. Catalog client
	catalog := catalogapi.NewClient(catalogapi.Config{
		BaseURL: cfg.Catalog.BaseURL,
		Timeout: cfg.Catalog.Timeout,
		Debug:   !cfg.IsProduction(),
	})

	// 5. Access guard
	var verifier *access.TokenVerifier
	if cfg.Auth.JWTPublicKeyPEM != "" {
		verifier, err = access.NewTokenVerifier(cfg.Auth.JWTPublicKeyPEM)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid session public key")
		}
		log.Info().Msg("local token verification enabled")
	}
	identityCache := cache.NewIdentityCache(redisClient, cfg.Auth.IdentityTTL)
	guard := access.NewGuard(access.NewClientResolver(catalog), identityCache, verifier, cfg.Auth.AllowedRoles)

	// 6. Repositories and services
	prefRepo := repository.NewPreferenceRepository(db)
	shellSvc := service.NewShellService(prefRepo)
	registry := workspace.NewRegistry(workspace.Services{
		Materials:  service.NewMaterialService(catalog, catalog),
		Categories: service.NewCategoryService(catalog),
		Series:     service.NewSeriesService(catalog),
		Messages:   service.NewMessageService(catalog),
	})

	// 7. Handlers
	maxUpload := int64(cfg.Workspace.MaxUploadMB) << 20
	handlers := &handler.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"redis":    redisClient,
			"database": prefRepo,
		}, registry),
		Session:    handler.NewSessionHandler(guard, registry, shellSvc),
		Materials:  handler.NewMaterialHandler(maxUpload),
		Categories: handler.NewCategoryHandler(maxUpload),
		Series:     handler.NewSeriesHandler(maxUpload),
		Messages:   handler.NewMessageHandler(),
	}

	// 8. Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 9. Middleware
	deniedLimiter := middleware.NewDeniedAccessRateLimiter(ctx, 5, time.Minute)
	accessMw := middleware.NewAccessMiddleware(guard, registry, deniedLimiter)
	bearerMw := middleware.NewBearerMiddleware()

	// 10. Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	handler.RegisterRoutes(router, handlers, accessMw, bearerMw)

	// 11. Start workers
	go worker.NewWorkspaceSweeper(registry, cfg.Workspace.IdleTTL, cfg.Workspace.SweepInterval).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// runMigrations applies the preference schema.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

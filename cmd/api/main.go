package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dorm-listing-portal/internal/auth"
	"dorm-listing-portal/internal/config"
	"dorm-listing-portal/internal/database"
	"dorm-listing-portal/internal/explore"
	"dorm-listing-portal/internal/handlers"
	"dorm-listing-portal/internal/models"
	"dorm-listing-portal/internal/ratelimit"
	"dorm-listing-portal/internal/scheduler"
	"dorm-listing-portal/internal/search"
	"dorm-listing-portal/internal/storage"
	"dorm-listing-portal/internal/submission"
	"dorm-listing-portal/internal/users"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Failed to load .env: %v", err)
	}

	// Load configuration
	configPath := getEnv("CONFIG_PATH", "/app/config/config.yaml")
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	logger := newLogger(appConfig.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize record store based on configuration
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = getEnv("DB_TYPE", "postgres")
	}
	store, err := database.Open(appConfig.Database, func(key, configValue, defaultValue string) string {
		return getEnvOrConfig(configValue, key, defaultValue)
	})
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", appConfig.Database.Type, err)
	}
	defer store.Close()

	if err := store.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	logger.Info("record store ready", "type", appConfig.Database.Type)

	// Initialize image object store
	objects, err := storage.New(ctx, appConfig.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize %s object store: %v", appConfig.Storage.Type, err)
	}
	if closer, ok := objects.(io.Closer); ok {
		defer closer.Close()
	}
	logger.Info("object store ready", "type", appConfig.Storage.Type)

	// Initialize Meilisearch using config
	var (
		searchClient *search.SearchClient
		searcher     explore.Searcher
		indexer      submission.Indexer
		reindexer    handlers.Reindexer
	)
	meiliCfg := appConfig.Search.Meilisearch
	if meiliCfg.Enabled || os.Getenv("MEILISEARCH_HOST") != "" {
		searchClient = search.NewSearchClient(
			getEnvOrConfig(meiliCfg.Host, "MEILISEARCH_HOST", "http://meilisearch:7700"),
			getEnvOrConfig(meiliCfg.APIKey, "MEILISEARCH_KEY", ""),
			meiliCfg.Index,
			logger,
		)
		if err := searchClient.InitIndex(); err != nil {
			logger.Warn("failed to initialize search index", "error", err)
		}
		searcher = searchClient
		indexer = searchClient
	}

	// Initialize and start scheduler (search only)
	if searchClient != nil {
		appScheduler := scheduler.NewScheduler(store, searchClient, appConfig.Scheduler, logger)
		if err := appScheduler.Start(); err != nil {
			logger.Warn("failed to start scheduler", "error", err)
		}
		defer appScheduler.Stop()
		reindexer = appScheduler
	}

	// Initialize rate limiter
	rateLimiter := ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)
	logger.Info("rate limiter initialized",
		"per_minute", appConfig.RateLimit.RequestsPerMinute,
		"per_hour", appConfig.RateLimit.RequestsPerHour,
		"per_day", appConfig.RateLimit.RequestsPerDay,
		"enabled", appConfig.RateLimit.Enabled,
	)

	jwtSecret := getEnvOrConfig(appConfig.Auth.JWTSecret, "JWT_SECRET", "")
	if jwtSecret == "" {
		log.Fatalf("JWT secret is not configured (auth.jwt_secret or JWT_SECRET)")
	}

	// Services
	userService := users.NewService(store, logger)
	exploreService := explore.NewService(store, searcher, appConfig.Explore.GetCacheTTL(), logger)
	defer exploreService.Close()
	submissionService := submission.NewService(store, objects, auth.ContextSession{}, submission.Options{
		MaxConcurrency: appConfig.Submission.MaxConcurrency,
		Indexer:        indexer,
		Logger:         logger,
	})

	listingHandler := handlers.NewListingHandler(submissionService, exploreService, store, objects, handlers.ListingHandlerConfig{
		MaxImages:     appConfig.Submission.MaxImages,
		MaxImageBytes: appConfig.Submission.MaxImageBytes,
		Logger:        logger,
	})
	userHandler := handlers.NewUserHandler(userService)
	adminHandler := handlers.NewAdminHandler(reindexer, rateLimiter, logger)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	if appConfig.Logging.LogRequests {
		r.Use(gin.Logger())
	}
	r.MaxMultipartMemory = int64(appConfig.Submission.MaxImages+1) * appConfig.Submission.MaxImageBytes

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Routes
	r.GET("/health", handlers.HealthCheck)
	r.GET("/api/explore", listingHandler.Explore)
	r.GET("/api/listings/:id", listingHandler.GetListing)
	r.GET("/api/images/:key", listingHandler.GetImage)

	authed := r.Group("/api", auth.JWTMiddleware([]byte(jwtSecret)))
	{
		authed.POST("/users", userHandler.Register)
		authed.GET("/users/me", userHandler.Me)
		authed.PUT("/users/me/role", userHandler.AssignRole)
		authed.GET("/ratelimit/stats", adminHandler.GetRateLimitStats)

		// Listing creation is the one owner-only action, rate limited per user
		authed.POST("/listings",
			auth.RequireRole(userService, models.RoleOwner),
			ratelimit.Middleware(rateLimiter, func(c *gin.Context) string {
				return c.GetString(auth.ContextKeyUserID)
			}),
			listingHandler.CreateListing,
		)

		authed.POST("/search/reindex", adminHandler.TriggerReindex)
	}

	port := getEnv("PORT", appConfig.Server.Port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/morphic/api/internal/cache"
	"github.com/morphic/api/internal/config"
	"github.com/morphic/api/internal/database"
	"github.com/morphic/api/internal/eventbus"
	"github.com/morphic/api/internal/generation"
	"github.com/morphic/api/internal/handlers"
	"github.com/morphic/api/internal/keybridge"
	"github.com/morphic/api/internal/llm"
	"github.com/morphic/api/internal/middleware"
	"github.com/morphic/api/internal/models"
	"github.com/morphic/api/internal/preview"
	"github.com/morphic/api/internal/repair"
	"github.com/morphic/api/internal/telemetry"
)

func main() {
	ctx := context.Background()

	// .env is optional; real deployments set the environment directly
	godotenv.Load()

	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	logger.Info("Morphic API starting...",
		zap.String("version", "0.1.0"),
		zap.String("environment", cfg.Environment),
	)

	shutdownTelemetry, err := telemetry.InitTracer(ctx, "morphic-api")
	if err != nil {
		// Collector may be down; generation works without tracing.
		logger.Error("failed to initialize telemetry", zap.Error(err))
	} else {
		defer func() {
			if err := shutdownTelemetry(ctx); err != nil {
				logger.Error("failed to shutdown telemetry", zap.Error(err))
			}
		}()
	}

	// Optional timeline mirror; nil publisher disables it.
	var bus *eventbus.Publisher
	if cfg.NATSURL != "" {
		bus, err = eventbus.Connect(cfg.NATSURL, logger)
		if err != nil {
			logger.Error("event bus unavailable, timeline mirroring disabled", zap.Error(err))
		} else {
			defer bus.Close()
		}
	}

	db, err := database.NewSQLite(cfg.SQLitePath)
	if err != nil {
		logger.Fatal("failed to open cache database", zap.Error(err))
	}
	defer db.Close()

	fallback, err := cache.NewFileStore(cfg.CacheDir)
	if err != nil {
		logger.Fatal("failed to prepare fallback cache", zap.Error(err))
	}

	// Redis, when configured, replaces SQLite as the durable cache tier.
	var durable cache.Store = cache.NewSQLiteStore(db.DB())
	var rdb *database.Redis
	if cfg.RedisURL != "" {
		rdb, err = database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Error("redis unavailable, using sqlite durable tier", zap.Error(err))
		} else {
			defer rdb.Close()
			durable = cache.NewRedisStore(rdb.Client())
		}
	}

	tiered := cache.NewTiered(durable, fallback, logger)
	planCache := cache.NewPlanCache(tiered)
	codeCache := cache.NewCodeCache(tiered)

	bridge, err := keybridge.New(cfg.KeyFile, cfg.KeySecret, logger)
	if err != nil {
		logger.Fatal("failed to initialize key bridge", zap.Error(err))
	}

	modelClient := llm.NewClient(cfg.GroqAPIURL, bridge, middleware.ModelCircuitBreaker, logger)

	validators, fixers := repair.Defaults()
	repairs := repair.New(cfg.MaxRepairAttempts, validators, fixers, logger)

	blueprintAgent := generation.NewBlueprintAgent(modelClient, planCache, logger)
	deltaAgent := generation.NewDeltaAgent(modelClient, logger)

	orchestrator := generation.NewOrchestrator(
		blueprintAgent,
		deltaAgent,
		repairs,
		codeCache,
		time.Duration(cfg.SettleDelayMs)*time.Millisecond,
		func(result *models.GenerationResult) {
			logger.Info("preview handoff ready",
				zap.Int64("duration_ms", result.DurationMs),
				zap.Bool("cached", result.Cached),
			)
		},
		logger,
	)

	registry := generation.NewRegistry(bus)
	relay := preview.NewRelay(logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	healthHandler := handlers.NewHealthHandler(db, rdb, bus)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/deep", healthHandler.DeepHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	generationHandler := handlers.NewGenerationHandler(registry, orchestrator, logger)
	previewHandler := handlers.NewPreviewHandler(registry, relay)
	credentialHandler := handlers.NewCredentialHandler(bridge)
	exportHandler := handlers.NewExportHandler(registry, logger)
	templatesHandler := handlers.NewTemplatesHandler()

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimitMiddleware(middleware.DefaultRateLimiter))
	{
		// Generation starts fan out into model calls, so they get the
		// small bucket and the provider circuit breaker.
		generate := v1.Group("")
		generate.Use(middleware.RateLimitMiddleware(middleware.GenerationRateLimiter))
		generate.Use(middleware.CircuitBreakerMiddleware(middleware.ModelCircuitBreaker))
		generate.POST("/generate", generationHandler.Generate)

		session := v1.Group("/session/:id")
		{
			session.GET("", generationHandler.GetSession)
			session.GET("/timeline", generationHandler.GetTimeline)
			session.GET("/result", generationHandler.GetResult)
			session.GET("/preview", previewHandler.GetManifest)
			session.POST("/preview/status", previewHandler.PostStatus)
			session.GET("/export", exportHandler.Download)
		}

		credential := v1.Group("/credential")
		{
			credential.POST("", credentialHandler.Set)
			credential.DELETE("", credentialHandler.Clear)
			credential.GET("", credentialHandler.Get)
		}

		v1.GET("/templates", templatesHandler.List)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}

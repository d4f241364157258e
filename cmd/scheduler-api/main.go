package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/defense-scheduler/api/swagger"
	"github.com/noah-isme/defense-scheduler/internal/handler"
	internalmiddleware "github.com/noah-isme/defense-scheduler/internal/middleware"
	"github.com/noah-isme/defense-scheduler/internal/repository"
	"github.com/noah-isme/defense-scheduler/internal/service"
	"github.com/noah-isme/defense-scheduler/pkg/cache"
	"github.com/noah-isme/defense-scheduler/pkg/config"
	"github.com/noah-isme/defense-scheduler/pkg/database"
	"github.com/noah-isme/defense-scheduler/pkg/events"
	"github.com/noah-isme/defense-scheduler/pkg/jobs"
	"github.com/noah-isme/defense-scheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/defense-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/defense-scheduler/pkg/middleware/requestid"
	"github.com/noah-isme/defense-scheduler/pkg/storage"
)

// @title Defense Scheduler API
// @version 1.0.0
// @description Builds defense schedules that balance instructor workload and avoid double bookings
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, result cache disabled", zap.Error(err))
	} else {
		redisClient = client
	}

	publisher, err := events.NewPublisher(cfg.Events, logr)
	if err != nil {
		logr.Warn("rabbitmq unavailable, run events disabled", zap.Error(err))
		publisher = events.NopPublisher{}
	}
	defer publisher.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduler.ProposalTTL, logr, redisClient != nil)

	optimizationSvc := service.NewOptimizationService(
		repository.NewDefenseRepository(db),
		repository.NewOptimizationRunRepository(db),
		db,
		cacheSvc,
		publisher,
		metricsSvc,
		validator.New(),
		logr,
		service.OptimizationConfig{
			Defaults:    service.OptionsFromConfig(cfg.Scheduler),
			ProposalTTL: cfg.Scheduler.ProposalTTL,
		},
	)

	if cfg.Scheduler.Enabled {
		queue := jobs.NewQueue("optimizations", optimizationSvc.HandleJob, jobs.QueueConfig{
			Workers:    cfg.Queue.Workers,
			BufferSize: cfg.Queue.BufferSize,
			MaxRetries: cfg.Queue.MaxRetries,
			RetryDelay: cfg.Queue.RetryDelay,
			Logger:     logr,
			OnFailure:  optimizationSvc.HandleJobFailure,
		})
		queue.Start(ctx)
		defer queue.Stop()
		optimizationSvc.AttachQueue(queue)
	}

	exportStore, err := storage.NewDiskStore(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	exportSvc := service.NewExportService(
		optimizationSvc,
		exportStore,
		storage.NewSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		nil,
		logr,
		service.ExportConfig{APIPrefix: cfg.APIPrefix, CleanupInterval: cfg.Exports.CleanupInterval},
	)
	exportSvc.StartCleanup(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	optimizationHandler := handler.NewOptimizationHandler(optimizationSvc, cfg.APIPrefix)
	exportHandler := handler.NewExportHandler(exportSvc)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/system", metricsHandler.Snapshot)
	api.POST("/optimizations", optimizationHandler.Run)
	api.POST("/optimizations/jobs", optimizationHandler.Enqueue)
	api.POST("/optimizations/save", optimizationHandler.Save)
	api.GET("/optimizations/:id", optimizationHandler.Get)
	api.POST("/optimizations/:id/export", exportHandler.Export)
	api.GET("/optimization-exports/:token", exportHandler.Download)
	api.GET("/optimization-runs", optimizationHandler.ListRuns)
	api.GET("/optimization-runs/:id/assignments", optimizationHandler.Assignments)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

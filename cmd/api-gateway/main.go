package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/uni-admission-api/api/swagger"
	"github.com/noah-isme/uni-admission-api/internal/handler"
	"github.com/noah-isme/uni-admission-api/internal/middleware"
	"github.com/noah-isme/uni-admission-api/internal/repository"
	"github.com/noah-isme/uni-admission-api/internal/service"
	"github.com/noah-isme/uni-admission-api/pkg/cache"
	"github.com/noah-isme/uni-admission-api/pkg/config"
	"github.com/noah-isme/uni-admission-api/pkg/database"
	"github.com/noah-isme/uni-admission-api/pkg/jobs"
	"github.com/noah-isme/uni-admission-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uni-admission-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uni-admission-api/pkg/middleware/requestid"
)

// @title University Admission API
// @version 1.0.0
// @description Admission campaign tracking with capacity-constrained deferred acceptance
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	schemaRepo := repository.NewSchemaRepository(db)
	if err := schemaRepo.Ensure(ctx); err != nil {
		logr.Sugar().Fatalw("schema bootstrap failed", "error", err)
	}

	programRepo := repository.NewProgramRepository(db)
	if err := programRepo.Seed(ctx, cfg.Admission.Programs); err != nil {
		logr.Sugar().Fatalw("program seed failed", "error", err)
	}

	snapshotRepo := repository.NewSnapshotRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Admission.CacheTTL, logr, redisClient != nil)
	validate := validator.New()

	authSvc := service.NewAuthService(validate, logr, cfg.Auth)
	admissionSvc := service.NewAdmissionService(snapshotRepo, programRepo, cacheSvc, metricsSvc, cfg.Admission, logr)
	importSvc := service.NewImportService(snapshotRepo, applicationRepo, programRepo, schemaRepo, cacheSvc, metricsSvc, cfg.Admission, cfg.Import.DataDir, logr)
	reportSvc := service.NewReportService(admissionSvc, snapshotRepo, cfg.Reports, cfg.Admission, logr)

	reportQueue := jobs.NewQueue("reports", reportSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportSvc.AttachQueue(reportQueue)
	reportQueue.Start(ctx)
	defer reportQueue.Stop()

	scheduler := cron.New()
	if cfg.Import.AutoEnabled {
		if _, err := scheduler.AddFunc(cfg.Import.AutoCronSpec, func() {
			if _, err := importSvc.ImportNextPending(ctx); err != nil {
				logr.Warn("scheduled import failed", zap.Error(err))
			}
		}); err != nil {
			logr.Sugar().Fatalw("invalid import cron spec", "spec", cfg.Import.AutoCronSpec, "error", err)
		}
	}
	if cfg.Reports.CleanupInterval > 0 {
		if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", cfg.Reports.CleanupInterval), func() {
			reportSvc.CleanupExpired()
		}); err != nil {
			logr.Sugar().Fatalw("invalid report cleanup interval", "error", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	admissionHandler := handler.NewAdmissionHandler(admissionSvc)
	snapshotHandler := handler.NewSnapshotHandler(admissionSvc)
	importHandler := handler.NewImportHandler(importSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/admission/:day", admissionHandler.GetDay)
	api.GET("/admission/:day/cutoffs", admissionHandler.GetCutoffs)
	api.GET("/snapshots/:day/programs/:code", snapshotHandler.ProgramBoard)
	api.GET("/snapshots/:day/applicants", snapshotHandler.PriorityChains)
	api.GET("/reports/jobs/:id", reportHandler.JobStatus)
	api.GET("/reports/jobs/:id/download", reportHandler.Download)
	api.GET("/reports/:day/admitted.csv", reportHandler.AdmittedCSV)

	guarded := api.Group("", middleware.JWT(authSvc))
	guarded.POST("/imports/:day", importHandler.ImportDay)
	guarded.POST("/imports/reset", importHandler.Reset)
	guarded.POST("/reports/:day", reportHandler.CreateJob)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
	logr.Info("server stopped")
}

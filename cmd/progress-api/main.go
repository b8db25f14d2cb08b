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
	"go.uber.org/zap"

	_ "github.com/noah-isme/edu-progress-api/api/swagger"
	"github.com/noah-isme/edu-progress-api/internal/handler"
	"github.com/noah-isme/edu-progress-api/internal/repository"
	"github.com/noah-isme/edu-progress-api/internal/service"
	"github.com/noah-isme/edu-progress-api/pkg/cache"
	"github.com/noah-isme/edu-progress-api/pkg/config"
	"github.com/noah-isme/edu-progress-api/pkg/database"
	"github.com/noah-isme/edu-progress-api/pkg/logger"
)

// @title Edu Progress API
// @version 1.0.0
// @description Course progress analytics: status tiers, rosters, tabular reports and histories.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	checks := map[string]handler.Pinger{"postgres": handler.PingFunc(db.PingContext)}

	var cacheRepo *repository.CacheRepository
	if cfg.Reports.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, report cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, "edu-progress", logr)
			defer cacheRepo.Close() //nolint:errcheck
			checks["redis"] = cacheRepo
		}
	}
	var cacheStore service.CacheRepository
	if cacheRepo != nil {
		cacheStore = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheStore, metrics, cfg.Reports.CacheTTL, logr, cacheStore != nil)

	loc := cfg.Reports.Location()
	validate := validator.New()

	courses := repository.NewCourseRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	tasks := repository.NewTaskRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	sessions := repository.NewClassSessionRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	parents := repository.NewParentRepository(db)
	notifications := repository.NewNotificationRepository(db)

	dispatcher := service.NewNotificationDispatcher(notifications, metrics, logr, service.NotificationConfig{
		Enabled:    cfg.Notifications.Enabled,
		Workers:    cfg.Notifications.Workers,
		Retries:    cfg.Notifications.Retries,
		BufferSize: cfg.Notifications.BufferSize,
		RetryDelay: cfg.Notifications.RetryDelay,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	progressSvc := service.NewProgressService(service.ProgressServiceParams{
		Courses:     courses,
		Attendance:  attendance,
		Tasks:       tasks,
		Submissions: submissions,
		Progress:    progressRepo,
		Events:      dispatcher,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Logger:      logr,
		Location:    loc,
	})
	reportSvc := service.NewCourseReportService(service.CourseReportServiceParams{
		Courses:     courses,
		Attendance:  attendance,
		Tasks:       tasks,
		Submissions: submissions,
		Progress:    progressRepo,
		Cache:       cacheSvc,
		Logger:      logr,
		Config:      service.CourseReportConfig{CacheTTL: cfg.Reports.CacheTTL, Location: loc},
	})
	historySvc := service.NewHistoryService(service.HistoryServiceParams{
		Syncer:      progressSvc,
		Courses:     courses,
		Tasks:       tasks,
		Submissions: submissions,
		Attendance:  attendance,
		Sessions:    sessions,
		Parents:     parents,
		Progress:    progressRepo,
		Logger:      logr,
		Location:    loc,
	})
	attendanceSvc := service.NewAttendanceService(courses, attendance, validate, logr)
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	router := handler.NewRouter(handler.RouterParams{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Metrics:        metrics,
		Tokens:         tokenSvc,
		Reports:        handler.NewReportHandler(progressSvc, reportSvc, historySvc, validate),
		Parents:        handler.NewParentHandler(historySvc),
		Attendance:     handler.NewAttendanceHandler(attendanceSvc),
		Ops:            handler.NewMetricsHandler(metrics, checks, logr),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
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

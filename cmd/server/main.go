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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/classroll/classroll-api/api/swagger"
	"github.com/classroll/classroll-api/internal/clock"
	"github.com/classroll/classroll-api/internal/handler"
	"github.com/classroll/classroll-api/internal/middleware"
	"github.com/classroll/classroll-api/internal/models"
	"github.com/classroll/classroll-api/internal/repository"
	"github.com/classroll/classroll-api/internal/schedule"
	"github.com/classroll/classroll-api/internal/service"
	"github.com/classroll/classroll-api/pkg/cache"
	"github.com/classroll/classroll-api/pkg/config"
	"github.com/classroll/classroll-api/pkg/database"
	"github.com/classroll/classroll-api/pkg/jobs"
	"github.com/classroll/classroll-api/pkg/logger"
	corsmiddleware "github.com/classroll/classroll-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classroll/classroll-api/pkg/middleware/requestid"
	"github.com/classroll/classroll-api/pkg/storage"
)

// @title ClassRoll API
// @version 1.0.0
// @description Self-report attendance service for class 10
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck
	if err := database.EnsureSchema(db); err != nil {
		logr.Sugar().Fatalw("schema bootstrap failed", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, summary caching disabled", "error", err)
		redisClient = nil
	}

	registry, err := schedule.Parse(cfg.Schedule.Entries)
	if err != nil {
		logr.Sugar().Fatalw("invalid class schedule", "error", err)
	}

	var clk clock.Clock = clock.System{}
	if cfg.Env != config.EnvProduction {
		clk = clock.FromConfig(cfg.Attendance.FrozenAt)
		if _, frozen := clk.(clock.Fixed); frozen {
			logr.Sugar().Warnw("clock frozen", "at", cfg.Attendance.FrozenAt)
		}
	}

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("exports storage init failed", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	attendanceRepo := repository.NewAttendanceRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(studentRepo, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, cacheRepo, registry, clk, cfg.Attendance.SummaryCacheTTL, logr)
	exportSvc := service.NewExportService(attendanceRepo, files, logr)
	reportSvc := service.NewReportService(reportRepo, exportSvc, signer, metricsSvc, logr, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
	})

	if err := studentSvc.Seed(ctx, cfg.Seed); err != nil {
		logr.Sugar().Fatalw("roster seed failed", "error", err)
	}

	reportSvc.StartWorkers(ctx)
	defer reportSvc.StopWorkers()
	startExportCleanup(ctx, files, cfg.Reports.CleanupInterval, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, metricsSvc)
	adminHandler := handler.NewAdminHandler(attendanceSvc, reportSvc)
	exportHandler := handler.NewExportHandler(reportSvc, files)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/export/:token", exportHandler.Download)
	if cfg.Env != config.EnvProduction {
		api.GET("/debug/time", attendanceHandler.DebugTime)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/subjects", attendanceHandler.Schedule)
	authed.GET("/attendance/today", attendanceHandler.Today)
	authed.GET("/attendance/eligibility/:subject", attendanceHandler.Eligibility)
	authed.POST("/attendance/mark", attendanceHandler.Mark)

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/summary", adminHandler.Summary)
	admin.GET("/records", adminHandler.Records)
	admin.POST("/reports", adminHandler.CreateReport)
	admin.GET("/reports", adminHandler.ListReports)
	admin.GET("/reports/:id", adminHandler.GetReport)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "subjects", registry.Subjects())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}

// startExportCleanup periodically removes artifacts older than twice the
// signed URL lifetime, so expired links never point at live files for long.
func startExportCleanup(ctx context.Context, files *storage.LocalStorage, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := files.CleanupOlderThan(48 * time.Hour); err != nil {
					logr.Sugar().Warnw("export cleanup failed", "error", err)
				}
			}
		}
	}()
}

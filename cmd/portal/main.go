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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/univlabs/campus-portal-api/api/swagger"
	"github.com/univlabs/campus-portal-api/internal/handler"
	"github.com/univlabs/campus-portal-api/internal/middleware"
	"github.com/univlabs/campus-portal-api/internal/models"
	"github.com/univlabs/campus-portal-api/internal/repository"
	"github.com/univlabs/campus-portal-api/internal/service"
	"github.com/univlabs/campus-portal-api/pkg/cache"
	"github.com/univlabs/campus-portal-api/pkg/config"
	"github.com/univlabs/campus-portal-api/pkg/database"
	"github.com/univlabs/campus-portal-api/pkg/logger"
	corsmiddleware "github.com/univlabs/campus-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/univlabs/campus-portal-api/pkg/middleware/requestid"
	"github.com/univlabs/campus-portal-api/pkg/storage"
)

// @title Campus Portal API
// @version 1.0.0
// @description Timetable, attendance, leave and announcement services for the campus portal
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	scheduleRepo := repository.NewScheduleRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)

	captureSvc := service.NewCaptureService(cfg.Capture, logr)
	resolver := service.NewSessionResolver(cfg.Schedule.DefaultSessionDuration)
	scheduleSvc := service.NewScheduleService(scheduleRepo, captureSvc, cacheSvc, cfg.Schedule.DefaultSessionDuration, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, validate, cacheSvc, cfg.Attendance.RiskThreshold, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, uploadStore, validate, cacheSvc, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, cacheSvc, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, logr)
	tokenSvc := service.NewTokenService(cfg.JWT)

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Schedule:      scheduleSvc,
		Attendance:    attendanceSvc,
		Leaves:        leaveSvc,
		Announcements: announcementSvc,
		Resolver:      resolver,
		Cache:         cacheSvc,
		CacheTTL:      cfg.Dashboard.CacheTTL,
		Logger:        logr,
	})

	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(service.ExportServiceParams{
		Attendance: attendanceRepo,
		Leaves:     leaveSvc,
		Storage:    exportStore,
		Signer:     signer,
		Metrics:    metricsSvc,
		Logger:     logr,
		Workers:    cfg.Exports.WorkerConcurrency,
		Retries:    cfg.Exports.WorkerRetries,
		Retention:  cfg.Exports.Retention,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Exports.Enabled {
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
	}

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, resolver, cfg.Uploads.MaxFileSizeBytes)
	leaveHandler := handler.NewLeaveHandler(leaveSvc, cfg.Uploads.MaxFileSizeBytes)
	announcementHandler := handler.NewAnnouncementHandler(announcementSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, captureSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		// The capture collaborator being down degrades features but does
		// not make the portal unready.
		capture := "ok"
		if err := captureSvc.Health(c.Request.Context()); err != nil {
			capture = "unreachable"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "capture": capture})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))
	{
		api.GET("/schedule", scheduleHandler.Week)
		api.POST("/schedule", middleware.RequireRoles(models.RoleAdmin), scheduleHandler.Upload)
		api.DELETE("/schedule", middleware.RequireRoles(models.RoleAdmin), scheduleHandler.Clear)
		api.GET("/classes/:teacherId", scheduleHandler.TodayByTeacher)

		api.GET("/teachers", teacherHandler.List)

		api.GET("/leave-requests", leaveHandler.List)
		api.POST("/leave-requests", middleware.RequireRoles(models.RoleStudent), leaveHandler.Submit)
		api.PUT("/leave-requests/:id/approve", middleware.RequireRoles(models.RoleAdmin), leaveHandler.Approve)
		api.PUT("/leave-requests/:id/reject", middleware.RequireRoles(models.RoleAdmin), leaveHandler.Reject)

		api.GET("/announcements", announcementHandler.List)
		api.POST("/announcements", middleware.RequireRoles(models.RoleAdmin), announcementHandler.Post)
		api.DELETE("/announcements/:id", middleware.RequireRoles(models.RoleAdmin), announcementHandler.Remove)

		api.GET("/students/:id/attendance", middleware.RBAC(string(models.RoleAdmin), middleware.SelfRole), attendanceHandler.StudentReport)
		api.PUT("/attendance", middleware.RequireRoles(models.RoleAdmin), attendanceHandler.Record)
		api.POST("/start-attendance", middleware.RequireRoles(models.RoleAdmin), attendanceHandler.StartCapture)

		api.GET("/dashboard/admin", middleware.RequireRoles(models.RoleAdmin), dashboardHandler.Admin)
		api.GET("/dashboard/student", middleware.RequireRoles(models.RoleStudent), dashboardHandler.Student)

		if cfg.Exports.Enabled {
			api.POST("/exports", middleware.RequireRoles(models.RoleAdmin), exportHandler.Request)
			api.GET("/exports/:id", middleware.RequireRoles(models.RoleAdmin), exportHandler.Status)
			api.GET("/exports/:id/link", middleware.RequireRoles(models.RoleAdmin), exportHandler.Link)
		}
	}

	// Signed tokens carry their own authorization.
	if cfg.Exports.Enabled {
		r.GET(cfg.APIPrefix+"/exports/download", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

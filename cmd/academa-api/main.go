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

	_ "github.com/academa/academa-api/api/swagger"
	"github.com/academa/academa-api/internal/handler"
	"github.com/academa/academa-api/internal/middleware"
	"github.com/academa/academa-api/internal/repository"
	"github.com/academa/academa-api/internal/service"
	"github.com/academa/academa-api/pkg/cache"
	"github.com/academa/academa-api/pkg/config"
	"github.com/academa/academa-api/pkg/database"
	"github.com/academa/academa-api/pkg/logger"
	corsmiddleware "github.com/academa/academa-api/pkg/middleware/cors"
	reqidmiddleware "github.com/academa/academa-api/pkg/middleware/requestid"
)

// @title Academa API
// @version 1.0.0
// @description Personal academic tracking backend
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	homeworkRepo := repository.NewHomeworkRepository(db)
	examRepo := repository.NewExamRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.FreshnessWindow, logr, cfg.Dashboard.CacheEnabled)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, validate, logr)
	homeworkSvc := service.NewHomeworkService(homeworkRepo, courseRepo, cacheSvc, validate, logr)
	examSvc := service.NewExamService(examRepo, courseRepo, cacheSvc, validate, logr)
	semesterSvc := service.NewSemesterService(semesterRepo, courseRepo, homeworkRepo, examRepo, userRepo, validate, logr)
	assignmentSvc := service.NewAssignmentService(homeworkRepo, examRepo, logr)
	dashboardSvc := service.NewDashboardService(assignmentSvc, cacheSvc, logr, service.DashboardServiceConfig{
		FreshnessWindow:    cfg.Dashboard.FreshnessWindow,
		UpcomingWindowDays: int(cfg.Dashboard.UpcomingWindow.Hours() / 24),
	})

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(assignmentSvc, service.ExportConfig{MaxRows: cfg.Exports.MaxRows}, logr, nil, nil)
	}

	sweeper := service.NewSweeperService(homeworkRepo, examRepo, cacheSvc, metricsSvc, logr, service.SweeperConfig{
		Interval:   cfg.Sweep.Interval,
		Workers:    cfg.Sweep.Workers,
		MaxRetries: cfg.Sweep.MaxRetries,
		RetryDelay: cfg.Sweep.RetryDelay,
	})

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	homeworkHandler := handler.NewHomeworkHandler(homeworkSvc)
	examHandler := handler.NewExamHandler(examSvc)
	semesterHandler := handler.NewSemesterHandler(semesterSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc, exportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		protected := api.Group("")
		protected.Use(middleware.JWT(authSvc))
		{
			protected.POST("/auth/logout", authHandler.Logout)
			protected.POST("/auth/change-password", authHandler.ChangePassword)
			protected.GET("/auth/me", authHandler.Me)

			protected.GET("/courses", courseHandler.List)
			protected.POST("/courses", courseHandler.Create)
			protected.GET("/courses/:id", courseHandler.Get)
			protected.PUT("/courses/:id", courseHandler.Update)
			protected.DELETE("/courses/:id", courseHandler.Delete)

			protected.GET("/homeworks", homeworkHandler.List)
			protected.POST("/homeworks", homeworkHandler.Create)
			protected.GET("/homeworks/:id", homeworkHandler.Get)
			protected.PUT("/homeworks/:id", homeworkHandler.Update)
			protected.DELETE("/homeworks/:id", homeworkHandler.Delete)

			protected.GET("/exams", examHandler.List)
			protected.POST("/exams", examHandler.Create)
			protected.GET("/exams/:id", examHandler.Get)
			protected.PUT("/exams/:id", examHandler.Update)
			protected.DELETE("/exams/:id", examHandler.Delete)

			protected.GET("/assignments", assignmentHandler.List)
			protected.GET("/assignments/statistics", assignmentHandler.Statistics)
			protected.GET("/assignments/upcoming", assignmentHandler.Upcoming)
			protected.GET("/assignments/calendar", assignmentHandler.Calendar)
			protected.GET("/assignments/export", assignmentHandler.Export)

			protected.GET("/semesters", semesterHandler.List)
			protected.POST("/semesters", semesterHandler.Add)
			protected.GET("/semesters/default", semesterHandler.GetDefault)
			protected.PUT("/semesters/default", semesterHandler.SetDefault)
			protected.PUT("/semesters/:name", semesterHandler.Rename)
			protected.DELETE("/semesters/:name", semesterHandler.Delete)

			protected.GET("/dashboard/overview", dashboardHandler.Overview)
			protected.GET("/metrics/snapshot", metricsHandler.Snapshot)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sweep.Enabled {
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

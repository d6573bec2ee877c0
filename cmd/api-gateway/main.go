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
	"go.uber.org/zap"

	_ "github.com/noah-isme/univ-portal-api/api/swagger"
	"github.com/noah-isme/univ-portal-api/internal/handler"
	"github.com/noah-isme/univ-portal-api/internal/repository"
	"github.com/noah-isme/univ-portal-api/internal/service"
	"github.com/noah-isme/univ-portal-api/pkg/cache"
	"github.com/noah-isme/univ-portal-api/pkg/clock"
	"github.com/noah-isme/univ-portal-api/pkg/config"
	"github.com/noah-isme/univ-portal-api/pkg/database"
	"github.com/noah-isme/univ-portal-api/pkg/jobs"
	"github.com/noah-isme/univ-portal-api/pkg/logger"
	"github.com/noah-isme/univ-portal-api/pkg/storage"
)

// @title University Portal API
// @version 1.0.0
// @description Course catalog, enrollment, events and public content for the university portal.
// @BasePath /api/v1
// @schemes http https
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

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
			checks["redis"] = redisRepo.Ping
		}
	}

	clk := clock.Real()
	validate := service.NewValidator()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.CatalogTTL, logr, cfg.Cache.Enabled)

	users := repository.NewUserRepository(db)
	students := repository.NewStudentProfileRepository(db)
	departments := repository.NewDepartmentRepository(db)
	faculty := repository.NewFacultyRepository(db)
	courses := repository.NewCourseRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	events := repository.NewEventRepository(db)
	announcements := repository.NewAnnouncementRepository(db)
	profiles := repository.NewProfileRepository(db)
	site := repository.NewSiteRepository(db)

	store, err := storage.NewLocalStorage(cfg.Media.StorageDir)
	if err != nil {
		logr.Fatal("media storage unavailable", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Media.SignedURLSecret, cfg.Media.SignedURLTTL, clk)
	filePrefix := cfg.APIPrefix + "/files/"

	mediaSvc := service.NewMediaService(store, signer, metrics, clk, logr, service.MediaServiceConfig{
		MaxFileSize:    cfg.Media.MaxFileSizeBytes,
		AllowedMIMEs:   cfg.Media.AllowedMIMEs,
		ThumbnailWidth: cfg.Media.ThumbnailWidth,
		FilePrefix:     filePrefix,
	})

	thumbnails := jobs.NewQueue("thumbnails", mediaSvc.ThumbnailHandler(site), jobs.QueueConfig{
		Workers:    cfg.Media.ThumbnailWorkers,
		BufferSize: 64,
		MaxRetries: 2,
		RetryDelay: time.Second,
		Logger:     logr,
	})
	thumbnails.Start(ctx)
	defer thumbnails.Stop()

	authSvc := service.NewAuthService(users, students, departments, validate, logr, clk, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	directorySvc := service.NewDirectoryService(departments, faculty, courses, logr, cfg.Pagination.Faculty)
	courseSvc := service.NewCourseService(courses, enrollments, students, faculty, signer, users, cacheSvc, metrics, logr, service.CourseServiceConfig{
		PageSize:   cfg.Pagination.Courses,
		CacheTTL:   cfg.Cache.CatalogTTL,
		FilePrefix: filePrefix,
	})
	enrollmentSvc := service.NewEnrollmentService(enrollments, students, users, cacheSvc, metrics, clk, logr)
	eventSvc := service.NewEventService(events, users, cacheSvc, metrics, validate, clk, logr, cfg.Pagination.Events)
	announcementSvc := service.NewAnnouncementService(announcements, users, validate, clk, logr, cfg.Pagination.Announcements)
	profileSvc := service.NewProfileService(service.ProfileDeps{
		Users:           users,
		Students:        students,
		Faculty:         faculty,
		Departments:     departments,
		Updater:         profiles,
		StudentPictures: students,
		FacultyPictures: faculty,
		Images:          mediaSvc,
		Audit:           users,
	}, validate, clk, logr)
	siteSvc := service.NewSiteService(service.SiteDeps{
		Site:       site,
		Faculty:    faculty,
		Courses:    courses,
		Events:     events,
		Images:     mediaSvc,
		Thumbnails: thumbnails,
		Cache:      cacheSvc,
	}, validate, clk, logr, service.SiteServiceConfig{
		ImagePageSize: cfg.Pagination.GalleryImages,
		VideoPageSize: cfg.Pagination.GalleryVideos,
		HomeTTL:       cfg.Cache.HomeTTL,
	})

	router := newRouter(routerDeps{cfg: cfg, logger: logr, tokens: authSvc, audit: users, metrics: metrics}, handlers{
		auth:          handler.NewAuthHandler(authSvc),
		site:          handler.NewSiteHandler(siteSvc, mediaSvc.MaxFileSize()),
		directory:     handler.NewDirectoryHandler(directorySvc),
		courses:       handler.NewCourseHandler(courseSvc),
		enrollments:   handler.NewEnrollmentHandler(enrollmentSvc),
		events:        handler.NewEventHandler(eventSvc),
		announcements: handler.NewAnnouncementHandler(announcementSvc),
		profile:       handler.NewProfileHandler(profileSvc, mediaSvc.MaxFileSize()),
		files:         handler.NewFileHandler(mediaSvc),
		metrics:       handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

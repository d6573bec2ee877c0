package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/handler"
	"github.com/noah-isme/univ-portal-api/internal/middleware"
	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/internal/service"
	"github.com/noah-isme/univ-portal-api/pkg/config"
	"github.com/noah-isme/univ-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/univ-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/univ-portal-api/pkg/middleware/requestid"
)

type handlers struct {
	auth          *handler.AuthHandler
	site          *handler.SiteHandler
	directory     *handler.DirectoryHandler
	courses       *handler.CourseHandler
	enrollments   *handler.EnrollmentHandler
	events        *handler.EventHandler
	announcements *handler.AnnouncementHandler
	profile       *handler.ProfileHandler
	files         *handler.FileHandler
	metrics       *handler.MetricsHandler
}

type routerDeps struct {
	cfg     *config.Config
	logger  *zap.Logger
	tokens  middleware.TokenValidator
	audit   middleware.AuditWriter
	metrics *service.MetricsService
}

func newRouter(deps routerDeps, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.logger))
	r.Use(corsmiddleware.New(deps.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if deps.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authn := middleware.JWT(deps.tokens)
	optional := middleware.OptionalJWT(deps.tokens)

	api := r.Group(deps.cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	auth := api.Group("/auth")
	auth.POST("/register", h.auth.Register)
	auth.POST("/login", h.auth.Login)
	auth.POST("/refresh", h.auth.Refresh)
	auth.POST("/logout", authn, h.auth.Logout)

	api.GET("/home", h.site.Home)
	api.GET("/about", h.site.About)
	api.GET("/contact", h.site.Contact)
	api.POST("/contact", optional, middleware.Audit(deps.audit, deps.logger, models.AuditActionContactSubmit, "contact_message"), h.site.SubmitContact)
	api.GET("/gallery", h.site.Gallery)
	api.POST("/gallery/images", authn, middleware.RequireAdmin(), middleware.Audit(deps.audit, deps.logger, models.AuditActionGalleryUpload, "gallery_image"), h.site.UploadGalleryImage)
	api.GET("/search", h.site.Search)

	api.GET("/departments", h.directory.ListDepartments)
	api.GET("/departments/:id", h.directory.GetDepartment)
	api.GET("/faculty", h.directory.ListFaculty)
	api.GET("/faculty/:id", h.directory.GetFaculty)

	courses := api.Group("/courses")
	courses.GET("", h.courses.List)
	courses.GET("/my-courses", authn, h.enrollments.MyCourses)
	courses.GET("/:id", optional, h.courses.Get)
	courses.GET("/:id/syllabus", optional, h.courses.Syllabus)
	if deps.cfg.Reports.Enabled {
		courses.GET("/:id/roster", authn, middleware.RequireStaff(), h.courses.Roster)
	}
	courses.POST("/:id/enroll", authn, h.enrollments.Enroll)
	courses.POST("/:id/unenroll", authn, h.enrollments.Unenroll)

	events := api.Group("/events")
	events.GET("", h.events.List)
	events.GET("/calendar", h.events.Calendar)
	events.GET("/:id", optional, h.events.Get)
	events.POST("", authn, middleware.RequireStaff(), h.events.Create)
	events.POST("/:id/register", authn, h.events.Register)
	events.DELETE("/:id/register", authn, h.events.CancelRegistration)

	announcements := api.Group("/announcements")
	announcements.GET("", h.announcements.List)
	announcements.GET("/:id", h.announcements.Get)
	announcements.POST("", authn, middleware.RequireStaff(), h.announcements.Create)

	profile := api.Group("/profile", authn)
	profile.GET("", h.profile.Get)
	profile.PUT("", h.profile.Update)
	profile.POST("/picture", h.profile.UploadPicture)

	api.GET("/files/:token", h.files.Download)

	return r
}

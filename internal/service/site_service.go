package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/pkg/clock"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
	"github.com/noah-isme/univ-portal-api/pkg/jobs"
)

const (
	homeFeaturedFaculty = 3
	homeRecentEvents    = 3
	homeFeaturedCourses = 6
	homeGalleryImages   = 6
	aboutFacultySample  = 8
	searchLimit         = 20
)

type siteRepository interface {
	UniversityInfo(ctx context.Context) (*models.UniversityInfo, error)
	CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error
	ListImages(ctx context.Context, page, size int) ([]models.GalleryImage, int, error)
	ListFeaturedImages(ctx context.Context, limit int) ([]models.GalleryImage, error)
	ListVideos(ctx context.Context, page, size int) ([]models.GalleryVideo, int, error)
	CreateImage(ctx context.Context, image *models.GalleryImage) error
}

type siteFaculty interface {
	ListFeatured(ctx context.Context, limit int) ([]models.FacultySummary, error)
	ListSample(ctx context.Context, limit int) ([]models.FacultySummary, error)
	Search(ctx context.Context, term string, limit int) ([]models.FacultySummary, error)
}

type siteCourses interface {
	ListFeatured(ctx context.Context, limit int) ([]models.CourseSummary, error)
	Search(ctx context.Context, term string, limit int) ([]models.CourseSummary, error)
}

type siteEvents interface {
	ListRecent(ctx context.Context, limit int) ([]models.Event, error)
	Search(ctx context.Context, term string, limit int) ([]models.Event, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SiteServiceConfig carries page sizes and cache lifetimes for public pages.
type SiteServiceConfig struct {
	ImagePageSize int
	VideoPageSize int
	HomeTTL       time.Duration
}

// GalleryUpload describes a new gallery image.
type GalleryUpload struct {
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description" validate:"max=2000"`
	IsFeatured  bool   `form:"is_featured"`
}

// SiteService assembles the public landing, about, contact, gallery and search pages.
type SiteService struct {
	site       siteRepository
	faculty    siteFaculty
	courses    siteCourses
	events     siteEvents
	images     imageStore
	thumbnails jobEnqueuer
	cache      *CacheService
	validator  *validator.Validate
	clock      clock.Clock
	logger     *zap.Logger
	cfg        SiteServiceConfig
}

// SiteDeps groups the collaborators of SiteService.
type SiteDeps struct {
	Site       siteRepository
	Faculty    siteFaculty
	Courses    siteCourses
	Events     siteEvents
	Images     imageStore
	Thumbnails jobEnqueuer
	Cache      *CacheService
}

// NewSiteService constructs SiteService.
func NewSiteService(deps SiteDeps, validate *validator.Validate, clk clock.Clock, logger *zap.Logger, cfg SiteServiceConfig) *SiteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.Real()
	}
	if cfg.ImagePageSize <= 0 {
		cfg.ImagePageSize = 12
	}
	if cfg.VideoPageSize <= 0 {
		cfg.VideoPageSize = 8
	}
	return &SiteService{
		site:       deps.Site,
		faculty:    deps.Faculty,
		courses:    deps.Courses,
		events:     deps.Events,
		images:     deps.Images,
		thumbnails: deps.Thumbnails,
		cache:      deps.Cache,
		validator:  ensureValidator(validate),
		clock:      clk,
		logger:     logger,
		cfg:        cfg,
	}
}

// Home gathers the landing page blocks concurrently.
func (s *SiteService) Home(ctx context.Context) (*models.HomePage, error) {
	key := cachePrefixHome + "landing"
	var cached models.HomePage
	if s.cache.Get(ctx, key, &cached) {
		cached.FromCache = true
		return &cached, nil
	}

	page := &models.HomePage{}
	var recent []models.Event
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page.University, err = s.site.UniversityInfo(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		page.FeaturedFaculty, err = s.faculty.ListFeatured(gctx, homeFeaturedFaculty)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.events.ListRecent(gctx, homeRecentEvents)
		return err
	})
	g.Go(func() error {
		var err error
		page.FeaturedCourses, err = s.courses.ListFeatured(gctx, homeFeaturedCourses)
		return err
	})
	g.Go(func() error {
		var err error
		page.GalleryImages, err = s.site.ListFeaturedImages(gctx, homeGalleryImages)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load home page")
	}

	page.RecentEvents = eventViews(recent, s.clock.Now())
	if page.FeaturedFaculty == nil {
		page.FeaturedFaculty = []models.FacultySummary{}
	}
	if page.FeaturedCourses == nil {
		page.FeaturedCourses = []models.CourseSummary{}
	}
	if page.GalleryImages == nil {
		page.GalleryImages = []models.GalleryImage{}
	}
	s.cache.Set(ctx, key, page, s.cfg.HomeTTL)
	return page, nil
}

// About returns the university info with a sample of faculty.
func (s *SiteService) About(ctx context.Context) (*models.AboutPage, error) {
	info, err := s.site.UniversityInfo(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load university info")
	}
	faculty, err := s.faculty.ListSample(ctx, aboutFacultySample)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	if faculty == nil {
		faculty = []models.FacultySummary{}
	}
	return &models.AboutPage{University: info, Faculty: faculty}, nil
}

// ContactInfo returns the university contact details.
func (s *SiteService) ContactInfo(ctx context.Context) (*models.UniversityInfo, error) {
	info, err := s.site.UniversityInfo(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load university info")
	}
	return info, nil
}

// SubmitContact validates and stores a contact form message.
func (s *SiteService) SubmitContact(ctx context.Context, msg models.ContactMessage) (*models.ContactMessage, error) {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Subject = strings.TrimSpace(msg.Subject)
	if err := s.validator.Struct(msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact message")
	}
	msg.ID = ""
	msg.IsRead = false
	msg.CreatedAt = s.clock.Now()
	if err := s.site.CreateContactMessage(ctx, &msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store contact message")
	}
	return &msg, nil
}

// Gallery returns independently paginated images and videos.
func (s *SiteService) Gallery(ctx context.Context, imagePage, videoPage int) (*models.GalleryPage, error) {
	if imagePage < 1 {
		imagePage = 1
	}
	if videoPage < 1 {
		videoPage = 1
	}
	images, imageTotal, err := s.site.ListImages(ctx, imagePage, s.cfg.ImagePageSize)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gallery images")
	}
	videos, videoTotal, err := s.site.ListVideos(ctx, videoPage, s.cfg.VideoPageSize)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gallery videos")
	}
	if images == nil {
		images = []models.GalleryImage{}
	}
	if videos == nil {
		videos = []models.GalleryVideo{}
	}
	return &models.GalleryPage{
		Images:          images,
		ImagePagination: models.NewPagination(imagePage, s.cfg.ImagePageSize, imageTotal),
		Videos:          videos,
		VideoPagination: models.NewPagination(videoPage, s.cfg.VideoPageSize, videoTotal),
	}, nil
}

// Search matches courses, faculty and published events. An empty query
// returns no results.
func (s *SiteService) Search(ctx context.Context, query string) (*models.SearchResults, error) {
	query = strings.TrimSpace(query)
	results := &models.SearchResults{
		Query:   query,
		Courses: []models.CourseSummary{},
		Faculty: []models.FacultySummary{},
		Events:  []models.EventView{},
	}
	if query == "" {
		return results, nil
	}

	var events []models.Event
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		courses, err := s.courses.Search(gctx, query, searchLimit)
		if courses != nil {
			results.Courses = courses
		}
		return err
	})
	g.Go(func() error {
		faculty, err := s.faculty.Search(gctx, query, searchLimit)
		if faculty != nil {
			results.Faculty = faculty
		}
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.events.Search(gctx, query, searchLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "search failed")
	}
	results.Events = eventViews(events, s.clock.Now())
	results.TotalResults = len(results.Courses) + len(results.Faculty) + len(results.Events)
	return results, nil
}

// UploadGalleryImage stores a gallery image and queues its thumbnail.
func (s *SiteService) UploadGalleryImage(ctx context.Context, req GalleryUpload, filename string, data []byte, uploader models.Viewer) (*models.GalleryImage, error) {
	if !uploader.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can manage the gallery")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gallery image")
	}
	stored, err := s.images.StoreImage("gallery", filename, data)
	if err != nil {
		return nil, err
	}

	image := &models.GalleryImage{
		Title:       strings.TrimSpace(req.Title),
		Image:       stored.Key,
		Description: req.Description,
		IsFeatured:  req.IsFeatured,
		UploadedAt:  s.clock.Now(),
	}
	if err := s.site.CreateImage(ctx, image); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save gallery image")
	}

	job := jobs.Job{ID: uuid.NewString(), Type: JobTypeThumbnail, Payload: ThumbnailJob{ImageID: image.ID, Key: stored.Key}}
	if err := s.thumbnails.Enqueue(job); err != nil {
		s.logger.Warn("thumbnail not queued", zap.String("image_id", image.ID), zap.Error(err))
	}
	if image.IsFeatured {
		s.cache.Invalidate(ctx, cachePrefixHome)
	}
	return image, nil
}

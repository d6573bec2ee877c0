package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/pkg/clock"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

const (
	pinnedAnnouncementLimit  = 3
	relatedAnnouncementLimit = 3
)

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	ListPinned(ctx context.Context, limit int) ([]models.Announcement, error)
	FindPublished(ctx context.Context, id string) (*models.Announcement, error)
	ListRelated(ctx context.Context, announcement *models.Announcement, limit int) ([]models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
}

// AnnouncementList is one page of announcements plus the pinned strip.
type AnnouncementList struct {
	Items      []models.AnnouncementView `json:"items"`
	Pinned     []models.AnnouncementView `json:"pinned"`
	Pagination models.Pagination         `json:"pagination"`
}

// AnnouncementService publishes and lists announcements.
type AnnouncementService struct {
	repo      announcementRepository
	audit     auditWriter
	validator *validator.Validate
	clock     clock.Clock
	logger    *zap.Logger
	pageSize  int
}

// NewAnnouncementService constructs AnnouncementService.
func NewAnnouncementService(repo announcementRepository, audit auditWriter, validate *validator.Validate, clk clock.Clock, logger *zap.Logger, pageSize int) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.Real()
	}
	if pageSize <= 0 {
		pageSize = 15
	}
	return &AnnouncementService{repo: repo, audit: audit, validator: ensureValidator(validate), clock: clk, logger: logger, pageSize: pageSize}
}

// List returns a filtered page of published announcements.
func (s *AnnouncementService) List(ctx context.Context, filter models.AnnouncementFilter) (*AnnouncementList, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	filter.PageSize = s.pageSize
	filter.Search = strings.TrimSpace(filter.Search)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	pinned, err := s.repo.ListPinned(ctx, pinnedAnnouncementLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pinned announcements")
	}
	now := s.clock.Now()
	return &AnnouncementList{
		Items:      announcementViews(items, now),
		Pinned:     announcementViews(pinned, now),
		Pagination: models.NewPagination(filter.Page, filter.PageSize, total),
	}, nil
}

// Get returns a published announcement with related ones from the same department.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.AnnouncementDetail, error) {
	announcement, err := s.repo.FindPublished(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	related, err := s.repo.ListRelated(ctx, announcement, relatedAnnouncementLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list related announcements")
	}
	now := s.clock.Now()
	return &models.AnnouncementDetail{
		AnnouncementView: models.NewAnnouncementView(*announcement, now),
		Related:          announcementViews(related, now),
	}, nil
}

// Create publishes an announcement authored by the caller.
func (s *AnnouncementService) Create(ctx context.Context, req models.CreateAnnouncementRequest, author models.Viewer, meta models.RequestMeta) (*models.Announcement, error) {
	if !author.Role.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only faculty and administrators can publish announcements")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	if req.ExpiryDate != nil && !req.ExpiryDate.After(s.clock.Now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expiry date must be in the future")
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	audience := strings.TrimSpace(req.TargetAudience)
	if audience == "" {
		audience = "all"
	}

	announcement := &models.Announcement{
		Title:          strings.TrimSpace(req.Title),
		Content:        req.Content,
		AuthorID:       author.UserID,
		DepartmentID:   req.DepartmentID,
		Priority:       priority,
		TargetAudience: audience,
		ExpiryDate:     req.ExpiryDate,
		IsPublished:    req.IsPublished,
		IsPinned:       req.IsPinned,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	recordAudit(ctx, s.audit, s.logger, author.UserID, models.AuditActionAnnouncementCreate, "announcement", announcement.ID, map[string]string{"title": announcement.Title, "priority": string(priority)}, meta)
	return announcement, nil
}

func announcementViews(items []models.Announcement, now time.Time) []models.AnnouncementView {
	views := make([]models.AnnouncementView, 0, len(items))
	for _, a := range items {
		views = append(views, models.NewAnnouncementView(a, now))
	}
	return views
}

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
	"github.com/noah-isme/univ-portal-api/internal/repository"
	"github.com/noah-isme/univ-portal-api/pkg/clock"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

const (
	featuredEventLimit = 3
	relatedEventLimit  = 3
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	ListFeaturedUpcoming(ctx context.Context, now time.Time, limit int) ([]models.Event, error)
	FindPublished(ctx context.Context, id string) (*models.Event, error)
	ListRelated(ctx context.Context, event *models.Event, limit int) ([]models.Event, error)
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	IsRegistered(ctx context.Context, eventID, userID string) (bool, error)
	Register(ctx context.Context, reg *models.EventRegistration, now time.Time) error
	CancelRegistration(ctx context.Context, eventID, userID string) error
}

// EventList is one page of events plus the featured strip.
type EventList struct {
	Items      []models.EventView `json:"items"`
	Featured   []models.EventView `json:"featured"`
	Pagination models.Pagination  `json:"pagination"`
}

// CalendarMonth lists the events starting in one month.
type CalendarMonth struct {
	Year   int                `json:"year"`
	Month  int                `json:"month"`
	Events []models.EventView `json:"events"`
}

// EventService publishes events and manages registrations.
type EventService struct {
	repo      eventRepository
	audit     auditWriter
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	clock     clock.Clock
	logger    *zap.Logger
	pageSize  int
}

// NewEventService constructs EventService.
func NewEventService(repo eventRepository, audit auditWriter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, clk clock.Clock, logger *zap.Logger, pageSize int) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.Real()
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	return &EventService{repo: repo, audit: audit, cache: cache, metrics: metrics, validator: ensureValidator(validate), clock: clk, logger: logger, pageSize: pageSize}
}

// ListEvents returns a filtered page of published events.
func (s *EventService) ListEvents(ctx context.Context, filter models.EventFilter) (*EventList, error) {
	switch filter.Window {
	case "":
		filter.Window = models.WindowAll
	case models.WindowAll, models.WindowUpcoming, models.WindowOngoing, models.WindowPast:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "time must be one of all, upcoming, ongoing, past")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	filter.PageSize = s.pageSize
	filter.Search = strings.TrimSpace(filter.Search)
	now := s.clock.Now()
	filter.Now = now

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	featured, err := s.repo.ListFeaturedUpcoming(ctx, now, featuredEventLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list featured events")
	}
	return &EventList{
		Items:      eventViews(events, now),
		Featured:   eventViews(featured, now),
		Pagination: models.NewPagination(filter.Page, filter.PageSize, total),
	}, nil
}

// GetEvent returns a published event with viewer-specific registration state.
func (s *EventService) GetEvent(ctx context.Context, id string, viewer models.Viewer) (*models.EventDetail, error) {
	event, err := s.findPublished(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	detail := &models.EventDetail{
		EventView:        models.NewEventView(*event, now),
		RegistrationOpen: event.RegistrationRequired && event.RegistrationOpen(now) && !event.IsFull(),
	}
	if viewer.Authenticated() {
		if detail.IsRegistered, err = s.repo.IsRegistered(ctx, event.ID, viewer.UserID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
		}
	}
	related, err := s.repo.ListRelated(ctx, event, relatedEventLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list related events")
	}
	detail.Related = eventViews(related, now)
	return detail, nil
}

// Calendar lists published events starting in the given month. Zero values
// default to the current year and month.
func (s *EventService) Calendar(ctx context.Context, year, month int) (*CalendarMonth, error) {
	now := s.clock.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if year < 1900 || year > 9999 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year is out of range")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())
	events, err := s.repo.ListStartingBetween(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calendar events")
	}
	return &CalendarMonth{Year: year, Month: month, Events: eventViews(events, now)}, nil
}

// CreateEvent publishes a new event organised by the caller.
func (s *EventService) CreateEvent(ctx context.Context, req models.CreateEventRequest, organizer models.Viewer, meta models.RequestMeta) (*models.Event, error) {
	if !organizer.Role.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only faculty and administrators can create events")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if req.RegistrationDeadline != nil && req.RegistrationDeadline.After(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration deadline must not be after the event ends")
	}

	event := &models.Event{
		Title:                strings.TrimSpace(req.Title),
		Description:          req.Description,
		EventType:            req.EventType,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		Location:             req.Location,
		OrganizerID:          organizer.UserID,
		DepartmentID:         req.DepartmentID,
		MaxParticipants:      req.MaxParticipants,
		RegistrationRequired: req.RegistrationRequired,
		RegistrationDeadline: req.RegistrationDeadline,
		ContactEmail:         req.ContactEmail,
		ContactPhone:         req.ContactPhone,
		IsFeatured:           req.IsFeatured,
		IsPublished:          req.IsPublished,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.cache.Invalidate(ctx, cachePrefixHome)
	recordAudit(ctx, s.audit, s.logger, organizer.UserID, models.AuditActionEventCreate, "event", event.ID, map[string]string{"title": event.Title}, meta)
	return event, nil
}

// Register signs the user up for a published event.
func (s *EventService) Register(ctx context.Context, eventID, userID string, req models.RegisterEventRequest, meta models.RequestMeta) (*models.EventRegistration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	reg := &models.EventRegistration{EventID: eventID, UserID: userID, Notes: req.Notes}
	if err := s.repo.Register(ctx, reg, s.clock.Now()); err != nil {
		mapped := mapRegistrationError(err)
		s.metrics.RecordEventRegistration(mapped.Code)
		return nil, mapped
	}
	s.metrics.RecordEventRegistration(outcomeOK)
	recordAudit(ctx, s.audit, s.logger, userID, models.AuditActionEventRegister, "event", eventID, nil, meta)
	return reg, nil
}

// CancelRegistration withdraws the user's registration.
func (s *EventService) CancelRegistration(ctx context.Context, eventID, userID string, meta models.RequestMeta) error {
	if err := s.repo.CancelRegistration(ctx, eventID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "you are not registered for this event")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel registration")
	}
	recordAudit(ctx, s.audit, s.logger, userID, models.AuditActionEventCancel, "event", eventID, nil, meta)
	return nil
}

func (s *EventService) findPublished(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindPublished(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

func mapRegistrationError(err error) *appErrors.Error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "event not found")
	case errors.Is(err, repository.ErrRegistrationClosed):
		return appErrors.Clone(appErrors.ErrEventClosed, "")
	case errors.Is(err, repository.ErrEventAtCapacity):
		return appErrors.Clone(appErrors.ErrEventFull, "")
	case errors.Is(err, repository.ErrRegistrationExists):
		return appErrors.Clone(appErrors.ErrAlreadyRegistered, "")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register for event")
	}
}

func eventViews(events []models.Event, now time.Time) []models.EventView {
	views := make([]models.EventView, 0, len(events))
	for _, e := range events {
		views = append(views, models.NewEventView(e, now))
	}
	return views
}

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-portal-api/internal/middleware"
	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/internal/service"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
	"github.com/noah-isme/univ-portal-api/pkg/response"
)

type eventService interface {
	ListEvents(ctx context.Context, filter models.EventFilter) (*service.EventList, error)
	GetEvent(ctx context.Context, id string, viewer models.Viewer) (*models.EventDetail, error)
	Calendar(ctx context.Context, year, month int) (*service.CalendarMonth, error)
	CreateEvent(ctx context.Context, req models.CreateEventRequest, organizer models.Viewer, meta models.RequestMeta) (*models.Event, error)
	Register(ctx context.Context, eventID, userID string, req models.RegisterEventRequest, meta models.RequestMeta) (*models.EventRegistration, error)
	CancelRegistration(ctx context.Context, eventID, userID string, meta models.RequestMeta) error
}

// EventHandler serves events and event registration.
type EventHandler struct {
	events eventService
}

// NewEventHandler constructs EventHandler.
func NewEventHandler(events eventService) *EventHandler {
	return &EventHandler{events: events}
}

// List godoc
// @Summary List published events
// @Tags Events
// @Produce json
// @Param type query string false "Event type"
// @Param department query string false "Department code"
// @Param time query string false "all, upcoming, ongoing or past"
// @Param search query string false "Matches title or description"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	filter := models.EventFilter{
		Type:           models.EventType(lowerQuery(c, "type")),
		DepartmentCode: c.Query("department"),
		Window:         models.EventWindow(lowerQuery(c, "time")),
		Search:         c.Query("search"),
		Page:           pageQuery(c, "page"),
	}
	list, err := h.events.ListEvents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, &list.Pagination)
}

// Get godoc
// @Summary Event detail
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	detail, err := h.events.GetEvent(c.Request.Context(), c.Param("id"), middleware.Viewer(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Calendar godoc
// @Summary Events starting in a month
// @Tags Events
// @Produce json
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/calendar [get]
func (h *EventHandler) Calendar(c *gin.Context) {
	year, err := optionalInt(c, "year")
	if err != nil {
		response.Error(c, err)
		return
	}
	month, err := optionalInt(c, "month")
	if err != nil {
		response.Error(c, err)
		return
	}
	calendar, err := h.events.Calendar(c.Request.Context(), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil)
}

// Create godoc
// @Summary Publish an event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body models.CreateEventRequest true "Event"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	viewer, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.CreateEventRequest
	if err := bindJSON(c, &req, "invalid event payload"); err != nil {
		response.Error(c, err)
		return
	}
	event, err := h.events.CreateEvent(c.Request.Context(), req, viewer, middleware.RequestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Register godoc
// @Summary Register for an event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body models.RegisterEventRequest false "Notes"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id}/register [post]
func (h *EventHandler) Register(c *gin.Context) {
	viewer, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.RegisterEventRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	registration, err := h.events.Register(c.Request.Context(), c.Param("id"), viewer.UserID, req, middleware.RequestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Successfully registered for the event.", registration)
}

// CancelRegistration godoc
// @Summary Cancel an event registration
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/register [delete]
func (h *EventHandler) CancelRegistration(c *gin.Context) {
	viewer, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.events.CancelRegistration(c.Request.Context(), c.Param("id"), viewer.UserID, middleware.RequestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// optionalInt parses an integer query value; zero means absent.
func optionalInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be a number")
	}
	return value, nil
}

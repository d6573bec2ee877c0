package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-portal-api/internal/middleware"
	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/internal/service"
	"github.com/noah-isme/univ-portal-api/pkg/response"
)

type announcementService interface {
	List(ctx context.Context, filter models.AnnouncementFilter) (*service.AnnouncementList, error)
	Get(ctx context.Context, id string) (*models.AnnouncementDetail, error)
	Create(ctx context.Context, req models.CreateAnnouncementRequest, author models.Viewer, meta models.RequestMeta) (*models.Announcement, error)
}

// AnnouncementHandler serves announcements.
type AnnouncementHandler struct {
	announcements announcementService
}

// NewAnnouncementHandler constructs AnnouncementHandler.
func NewAnnouncementHandler(announcements announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

// List godoc
// @Summary List current announcements
// @Tags Announcements
// @Produce json
// @Param priority query string false "low, medium, high or urgent"
// @Param department query string false "Department code"
// @Param search query string false "Matches title or content"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	filter := models.AnnouncementFilter{
		Priority:       models.AnnouncementPriority(lowerQuery(c, "priority")),
		DepartmentCode: c.Query("department"),
		Search:         c.Query("search"),
		Page:           pageQuery(c, "page"),
	}
	list, err := h.announcements.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, &list.Pagination)
}

// Get godoc
// @Summary Announcement detail
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	detail, err := h.announcements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Publish an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body models.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	viewer, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.CreateAnnouncementRequest
	if err := bindJSON(c, &req, "invalid announcement payload"); err != nil {
		response.Error(c, err)
		return
	}
	announcement, err := h.announcements.Create(c.Request.Context(), req, viewer, middleware.RequestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

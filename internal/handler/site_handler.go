package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-portal-api/internal/middleware"
	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/internal/service"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
	"github.com/noah-isme/univ-portal-api/pkg/response"
)

type siteService interface {
	Home(ctx context.Context) (*models.HomePage, error)
	About(ctx context.Context) (*models.AboutPage, error)
	ContactInfo(ctx context.Context) (*models.UniversityInfo, error)
	SubmitContact(ctx context.Context, msg models.ContactMessage) (*models.ContactMessage, error)
	Gallery(ctx context.Context, imagePage, videoPage int) (*models.GalleryPage, error)
	Search(ctx context.Context, query string) (*models.SearchResults, error)
	UploadGalleryImage(ctx context.Context, req service.GalleryUpload, filename string, data []byte, uploader models.Viewer) (*models.GalleryImage, error)
}

// SiteHandler serves the public pages of the portal.
type SiteHandler struct {
	site        siteService
	maxFileSize int64
}

// NewSiteHandler constructs SiteHandler.
func NewSiteHandler(site siteService, maxFileSize int64) *SiteHandler {
	return &SiteHandler{site: site, maxFileSize: maxFileSize}
}

// Home godoc
// @Summary Landing page
// @Tags Site
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /home [get]
func (h *SiteHandler) Home(c *gin.Context) {
	page, err := h.site.Home(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, page.FromCache)
	response.JSON(c, http.StatusOK, page, nil, middleware.ExtractMeta(c))
}

// About godoc
// @Summary University information
// @Tags Site
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /about [get]
func (h *SiteHandler) About(c *gin.Context) {
	page, err := h.site.About(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, nil)
}

// Contact godoc
// @Summary Contact details
// @Tags Site
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /contact [get]
func (h *SiteHandler) Contact(c *gin.Context) {
	info, err := h.site.ContactInfo(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"university": info}, nil)
}

// SubmitContact godoc
// @Summary Send a contact message
// @Tags Site
// @Accept json
// @Produce json
// @Param payload body models.ContactMessage true "Message"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /contact [post]
func (h *SiteHandler) SubmitContact(c *gin.Context) {
	var msg models.ContactMessage
	if err := bindJSON(c, &msg, "invalid contact payload"); err != nil {
		response.Error(c, err)
		return
	}
	saved, err := h.site.SubmitContact(c.Request.Context(), msg)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Your message has been sent successfully!", saved)
}

// Gallery godoc
// @Summary Photo and video gallery
// @Tags Site
// @Produce json
// @Param image_page query int false "Image page"
// @Param video_page query int false "Video page"
// @Success 200 {object} response.Envelope
// @Router /gallery [get]
func (h *SiteHandler) Gallery(c *gin.Context) {
	page, err := h.site.Gallery(c.Request.Context(), pageQuery(c, "image_page"), pageQuery(c, "video_page"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, nil)
}

// UploadGalleryImage godoc
// @Summary Upload a gallery image
// @Tags Site
// @Accept mpfd
// @Produce json
// @Param image formData file true "JPEG or PNG image"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param is_featured formData bool false "Feature on the home page"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /gallery/images [post]
func (h *SiteHandler) UploadGalleryImage(c *gin.Context) {
	viewer, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.GalleryUpload
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid gallery payload"))
		return
	}
	filename, data, err := readUpload(c, "image", h.maxFileSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	image, err := h.site.UploadGalleryImage(c.Request.Context(), req, filename, data, viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, image)
}

// Search godoc
// @Summary Search courses, faculty and events
// @Tags Site
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /search [get]
func (h *SiteHandler) Search(c *gin.Context) {
	results, err := h.site.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

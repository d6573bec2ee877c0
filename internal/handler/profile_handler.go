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

type profileService interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest, meta models.RequestMeta) (*models.Profile, error)
	UploadPicture(ctx context.Context, userID, filename string, data []byte) (*service.PictureUpload, error)
}

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profiles    profileService
	maxFileSize int64
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(profiles profileService, maxFileSize int64) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, maxFileSize: maxFileSize}
}

// Get godoc
// @Summary Current user's profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	viewer, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	profile, err := h.profiles.GetProfile(c.Request.Context(), viewer.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Update godoc
// @Summary Update identity and student profile fields
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	viewer, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.UpdateProfileRequest
	if err := bindJSON(c, &req, "invalid profile payload"); err != nil {
		response.Error(c, err)
		return
	}
	profile, err := h.profiles.UpdateProfile(c.Request.Context(), viewer.UserID, req, middleware.RequestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Your profile has been updated successfully!", profile)
}

// UploadPicture godoc
// @Summary Upload a profile picture
// @Tags Profile
// @Accept mpfd
// @Produce json
// @Param picture formData file true "JPEG or PNG image"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /profile/picture [post]
func (h *ProfileHandler) UploadPicture(c *gin.Context) {
	viewer, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename, data, err := readUpload(c, "picture", h.maxFileSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	upload, err := h.profiles.UploadPicture(c.Request.Context(), viewer.UserID, filename, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, upload, nil)
}

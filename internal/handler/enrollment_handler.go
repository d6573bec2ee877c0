package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-portal-api/internal/middleware"
	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, userID, courseID string, meta models.RequestMeta) (*models.Enrollment, error)
	Unenroll(ctx context.Context, userID, courseID string, meta models.RequestMeta) error
	MyCourses(ctx context.Context, userID string) ([]models.MyCourse, error)
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Enroll godoc
// @Summary Enroll in a course
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	viewer, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), viewer.UserID, c.Param("id"), middleware.RequestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Successfully enrolled in the course.", enrollment)
}

// Unenroll godoc
// @Summary Drop a course
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/unenroll [post]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	viewer, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.enrollments.Unenroll(c.Request.Context(), viewer.UserID, c.Param("id"), middleware.RequestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Successfully unenrolled from the course.", nil)
}

// MyCourses godoc
// @Summary Courses the caller is actively enrolled in
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/my-courses [get]
func (h *EnrollmentHandler) MyCourses(c *gin.Context) {
	viewer, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	courses, err := h.enrollments.MyCourses(c.Request.Context(), viewer.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

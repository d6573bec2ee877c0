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

type courseService interface {
	ListCourses(ctx context.Context, filter models.CourseFilter) (*service.CourseList, error)
	GetCourse(ctx context.Context, id string, viewer models.Viewer) (*models.CourseDetail, error)
	SyllabusLink(ctx context.Context, id string, viewer models.Viewer) (*service.SignedLink, error)
	ExportRoster(ctx context.Context, id, format string, viewer models.Viewer, meta models.RequestMeta) (*service.RosterFile, error)
}

// CourseHandler serves the course catalog.
type CourseHandler struct {
	courses courseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses courseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List godoc
// @Summary Browse the course catalog
// @Tags Courses
// @Produce json
// @Param department query string false "Department code"
// @Param level query string false "undergraduate, graduate or postgraduate"
// @Param semester query string false "spring, summer or fall"
// @Param search query string false "Matches name, code or description"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		DepartmentCode: c.Query("department"),
		Level:          models.CourseLevel(lowerQuery(c, "level")),
		Semester:       models.Semester(lowerQuery(c, "semester")),
		Search:         c.Query("search"),
		Page:           pageQuery(c, "page"),
	}
	list, err := h.courses.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, list.FromCache)
	response.JSON(c, http.StatusOK, list.Items, &list.Pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Course detail
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	detail, err := h.courses.GetCourse(c.Request.Context(), c.Param("id"), middleware.Viewer(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Syllabus godoc
// @Summary Signed syllabus download link
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/syllabus [get]
func (h *CourseHandler) Syllabus(c *gin.Context) {
	link, err := h.courses.SyllabusLink(c.Request.Context(), c.Param("id"), middleware.Viewer(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Roster godoc
// @Summary Export the active roster
// @Tags Courses
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Course ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /courses/{id}/roster [get]
func (h *CourseHandler) Roster(c *gin.Context) {
	viewer, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := lowerQuery(c, "format")
	if format == "" {
		format = service.ExportFormatCSV
	}
	file, err := h.courses.ExportRoster(c.Request.Context(), c.Param("id"), format, viewer, middleware.RequestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}

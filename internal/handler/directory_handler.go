package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/internal/service"
	"github.com/noah-isme/univ-portal-api/pkg/response"
)

type directoryService interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	GetDepartment(ctx context.Context, id string) (*models.DepartmentDetail, error)
	ListFaculty(ctx context.Context, filter models.FacultyFilter) (*service.FacultyList, error)
	GetFaculty(ctx context.Context, id string) (*models.FacultyDetail, error)
}

// DirectoryHandler exposes departments and faculty.
type DirectoryHandler struct {
	directory directoryService
}

// NewDirectoryHandler constructs DirectoryHandler.
func NewDirectoryHandler(directory directoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// ListDepartments godoc
// @Summary List departments
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *DirectoryHandler) ListDepartments(c *gin.Context) {
	departments, err := h.directory.ListDepartments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}

// GetDepartment godoc
// @Summary Department detail with active courses and faculty
// @Tags Directory
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /departments/{id} [get]
func (h *DirectoryHandler) GetDepartment(c *gin.Context) {
	detail, err := h.directory.GetDepartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ListFaculty godoc
// @Summary List faculty
// @Tags Directory
// @Produce json
// @Param department query string false "Department code"
// @Param designation query string false "Designation"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /faculty [get]
func (h *DirectoryHandler) ListFaculty(c *gin.Context) {
	filter := models.FacultyFilter{
		DepartmentCode: c.Query("department"),
		Designation:    models.Designation(lowerQuery(c, "designation")),
		Page:           pageQuery(c, "page"),
	}
	list, err := h.directory.ListFaculty(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Items, &list.Pagination)
}

// GetFaculty godoc
// @Summary Faculty detail with courses taught
// @Tags Directory
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /faculty/{id} [get]
func (h *DirectoryHandler) GetFaculty(c *gin.Context) {
	detail, err := h.directory.GetFaculty(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

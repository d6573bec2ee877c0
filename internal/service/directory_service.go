package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/models"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

type departmentRepository interface {
	List(ctx context.Context) ([]models.Department, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type facultyRepository interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.FacultySummary, int, error)
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]models.FacultySummary, error)
}

type courseListings interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]models.CourseSummary, error)
	ListByInstructor(ctx context.Context, facultyID string) ([]models.CourseSummary, error)
}

// FacultyList is one page of the faculty directory.
type FacultyList struct {
	Items      []models.FacultySummary `json:"items"`
	Pagination models.Pagination       `json:"pagination"`
}

// DirectoryService exposes departments and faculty.
type DirectoryService struct {
	departments departmentRepository
	faculty     facultyRepository
	courses     courseListings
	logger      *zap.Logger
	pageSize    int
}

// NewDirectoryService constructs DirectoryService.
func NewDirectoryService(departments departmentRepository, faculty facultyRepository, courses courseListings, logger *zap.Logger, pageSize int) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	return &DirectoryService{departments: departments, faculty: faculty, courses: courses, logger: logger, pageSize: pageSize}
}

// ListDepartments returns all departments with their active course counts.
func (s *DirectoryService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	if departments == nil {
		departments = []models.Department{}
	}
	return departments, nil
}

// GetDepartment returns a department with its active courses and faculty.
func (s *DirectoryService) GetDepartment(ctx context.Context, id string) (*models.DepartmentDetail, error) {
	department, err := s.departments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	detail := &models.DepartmentDetail{Department: *department}
	if detail.Courses, err = s.courses.ListByDepartment(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list department courses")
	}
	if detail.Faculty, err = s.faculty.ListByDepartment(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list department faculty")
	}
	if detail.Courses == nil {
		detail.Courses = []models.CourseSummary{}
	}
	if detail.Faculty == nil {
		detail.Faculty = []models.FacultySummary{}
	}
	return detail, nil
}

// ListFaculty returns a page of the faculty directory.
func (s *DirectoryService) ListFaculty(ctx context.Context, filter models.FacultyFilter) (*FacultyList, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	filter.PageSize = s.pageSize
	items, total, err := s.faculty.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	if items == nil {
		items = []models.FacultySummary{}
	}
	return &FacultyList{Items: items, Pagination: models.NewPagination(filter.Page, filter.PageSize, total)}, nil
}

// GetFaculty returns a faculty member with the active courses they teach.
func (s *DirectoryService) GetFaculty(ctx context.Context, id string) (*models.FacultyDetail, error) {
	member, err := s.faculty.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}
	courses, err := s.courses.ListByInstructor(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty courses")
	}
	if courses == nil {
		courses = []models.CourseSummary{}
	}
	return &models.FacultyDetail{Faculty: *member, Courses: courses}, nil
}

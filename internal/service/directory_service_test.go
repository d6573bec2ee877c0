package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-portal-api/internal/models"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

type mockDepartmentRepo struct {
	departments map[string]*models.Department
}

func (m *mockDepartmentRepo) List(ctx context.Context) ([]models.Department, error) {
	return nil, nil
}

func (m *mockDepartmentRepo) FindByID(ctx context.Context, id string) (*models.Department, error) {
	d, ok := m.departments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

type mockFacultyRepo struct {
	members    map[string]*models.Faculty
	lastFilter models.FacultyFilter
}

func (m *mockFacultyRepo) List(ctx context.Context, filter models.FacultyFilter) ([]models.FacultySummary, int, error) {
	m.lastFilter = filter
	return []models.FacultySummary{{ID: "f1", LastName: "Turing"}}, 13, nil
}

func (m *mockFacultyRepo) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	f, ok := m.members[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return f, nil
}

func (m *mockFacultyRepo) ListByDepartment(ctx context.Context, departmentID string) ([]models.FacultySummary, error) {
	return []models.FacultySummary{{ID: "f1"}}, nil
}

type mockCourseListings struct{}

func (mockCourseListings) ListByDepartment(ctx context.Context, departmentID string) ([]models.CourseSummary, error) {
	return []models.CourseSummary{{ID: "c1"}, {ID: "c2"}}, nil
}

func (mockCourseListings) ListByInstructor(ctx context.Context, facultyID string) ([]models.CourseSummary, error) {
	return nil, nil
}

func newTestDirectoryService() (*DirectoryService, *mockFacultyRepo) {
	faculty := &mockFacultyRepo{members: map[string]*models.Faculty{"f1": {ID: "f1", FirstName: "Alan", LastName: "Turing"}}}
	departments := &mockDepartmentRepo{departments: map[string]*models.Department{"d1": {ID: "d1", Code: "CS", Name: "Computer Science"}}}
	return NewDirectoryService(departments, faculty, mockCourseListings{}, nil, 0), faculty
}

func TestDirectoryServiceListDepartmentsNeverNil(t *testing.T) {
	svc, _ := newTestDirectoryService()
	departments, err := svc.ListDepartments(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, departments)
}

func TestDirectoryServiceGetDepartment(t *testing.T) {
	svc, _ := newTestDirectoryService()

	detail, err := svc.GetDepartment(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "CS", detail.Code)
	assert.Len(t, detail.Courses, 2)
	assert.Len(t, detail.Faculty, 1)

	_, err = svc.GetDepartment(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDirectoryServiceListFaculty(t *testing.T) {
	svc, repo := newTestDirectoryService()

	list, err := svc.ListFaculty(context.Background(), models.FacultyFilter{DepartmentCode: "CS", Designation: models.DesignationProfessor, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 12, repo.lastFilter.PageSize)
	assert.Equal(t, "CS", repo.lastFilter.DepartmentCode)
	assert.Equal(t, 2, list.Pagination.Page)
	assert.Equal(t, 13, list.Pagination.TotalCount)
	assert.Equal(t, 2, list.Pagination.TotalPages())
}

func TestDirectoryServiceGetFaculty(t *testing.T) {
	svc, _ := newTestDirectoryService()

	detail, err := svc.GetFaculty(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "Alan Turing", detail.FullName())
	assert.NotNil(t, detail.Courses)

	_, err = svc.GetFaculty(context.Background(), "nobody")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

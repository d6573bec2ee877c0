package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

var courseRowColumns = []string{"id", "name", "code", "description", "department_id", "department_name", "department_code",
	"instructor_id", "instructor_name", "credits", "semester", "year", "level", "max_students", "schedule", "classroom",
	"syllabus", "status", "is_featured", "enrolled_count", "created_at", "updated_at"}

func TestCourseListAppliesFiltersInOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(courseRowColumns).
		AddRow("c-1", "Algorithms", "CS201", "Sorting and searching", "dep-1", "Computer Science", "CS",
			"fac-1", "Grace Hopper", 3, "fall", 2026, "undergraduate", 2, "MWF 9:00", "B-12",
			nil, "ACTIVE", true, 2, now, now)

	listPattern := regexp.QuoteMeta("WHERE c.status = $1 AND UPPER(d.code) = UPPER($2) AND c.level = $3 AND c.semester = $4 AND (LOWER(c.name) LIKE $5 OR LOWER(c.code) LIKE $5 OR LOWER(c.description) LIKE $5 OR LOWER(u.first_name) LIKE $5 OR LOWER(u.last_name) LIKE $5) ORDER BY d.name ASC, c.code ASC LIMIT 12 OFFSET 12")
	mock.ExpectQuery(listPattern).
		WithArgs(models.CourseStatusActive, "cs", models.LevelUndergraduate, models.SemesterFall, "%hopper%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses c")).
		WithArgs(models.CourseStatusActive, "cs", models.LevelUndergraduate, models.SemesterFall, "%hopper%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(13))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{
		DepartmentCode: "cs",
		Level:          models.LevelUndergraduate,
		Semester:       models.SemesterFall,
		Search:         " Hopper ",
		Page:           2,
	})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 13, total)
	assert.True(t, courses[0].IsFull())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseListWithoutFiltersOnlyActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.status = $1 ORDER BY d.name ASC, c.code ASC LIMIT 12 OFFSET 0")).
		WithArgs(models.CourseStatusActive).
		WillReturnRows(sqlmock.NewRows(courseRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	assert.Empty(t, courses)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseSearchUsesDepartmentName(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(d.name) LIKE $2")).
		WithArgs(models.CourseStatusActive, "%physics%", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "credits", "semester", "year", "level", "department_name"}).
			AddRow("c-2", "Mechanics", "PHY101", 4, "spring", 2026, "undergraduate", "Physics"))

	courses, err := repo.Search(context.Background(), "Physics", 20)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Physics", courses[0].DepartmentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%100\%\_done%`, likePattern(" 100%_Done "))
}

func TestClampPage(t *testing.T) {
	page, size := clampPage(0, 500, 12)
	assert.Equal(t, 1, page)
	assert.Equal(t, 12, size)

	page, size = clampPage(1<<62, 12, 12)
	assert.Equal(t, 12, size)
	assert.LessOrEqual(t, (page-1)*size, maxOffset)
	assert.GreaterOrEqual(t, (page-1)*size, 0)
}

func TestCourseListHugePageStaysInRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	// 2147483647/12*12 is the last offset a 12-item page can reach.
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 12 OFFSET 2147483640")).
		WithArgs(models.CourseStatusActive).
		WillReturnRows(sqlmock.NewRows(courseRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{Page: 1 << 62})
	require.NoError(t, err)
	assert.Empty(t, courses)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

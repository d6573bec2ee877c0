package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

func expectCourseLock(mock sqlmock.Sqlmock, courseID string, maxStudents int, status models.CourseStatus) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_students, status FROM courses WHERE id = $1 FOR UPDATE")).
		WithArgs(courseID).
		WillReturnRows(sqlmock.NewRows([]string{"max_students", "status"}).AddRow(maxStudents, status))
}

func TestEnrollCreatesActiveEnrollment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	expectCourseLock(mock, "course-1", 2, models.CourseStatusActive)
	mock.ExpectQuery("SELECT is_active FROM enrollments").WithArgs("stu-1", "course-1").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM enrollments").WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollment, err := repo.Enroll(context.Background(), "stu-1", "course-1", now)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	assert.True(t, enrollment.IsActive)
	assert.Equal(t, now, enrollment.EnrollmentDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollRejectsFullCourseWithoutInsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	expectCourseLock(mock, "course-1", 2, models.CourseStatusActive)
	mock.ExpectQuery("SELECT is_active FROM enrollments").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM enrollments").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), "stu-3", "course-1", time.Now())
	assert.ErrorIs(t, err, ErrCourseAtCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollDetectsExistingRows(t *testing.T) {
	tests := []struct {
		name        string
		isActive    bool
		maxStudents int
		activeCount int
		want        error
	}{
		{"active enrollment", true, 50, 0, ErrEnrollmentActive},
		{"dropped enrollment with free seat", false, 50, 10, ErrEnrollmentDropped},
		{"dropped enrollment in full course", false, 2, 2, ErrCourseAtCapacity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := newMock(t)
			defer cleanup()
			repo := NewEnrollmentRepository(db)

			mock.ExpectBegin()
			expectCourseLock(mock, "course-1", tt.maxStudents, models.CourseStatusActive)
			mock.ExpectQuery("SELECT is_active FROM enrollments").
				WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(tt.isActive))
			if !tt.isActive {
				mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM enrollments").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.activeCount))
			}
			mock.ExpectRollback()

			_, err := repo.Enroll(context.Background(), "stu-1", "course-1", time.Now())
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEnrollTreatsInactiveCourseAsMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	expectCourseLock(mock, "course-1", 50, models.CourseStatusInactive)
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), "stu-1", "course-1", time.Now())
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollMapsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	expectCourseLock(mock, "course-1", 50, models.CourseStatusActive)
	mock.ExpectQuery("SELECT is_active FROM enrollments").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM enrollments").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO enrollments").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), "stu-1", "course-1", time.Now())
	assert.ErrorIs(t, err, ErrEnrollmentDropped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDropEnrollment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET is_active = FALSE, status = $3")).
		WithArgs("stu-1", "course-1", models.EnrollmentStatusDropped).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Drop(context.Background(), "stu-1", "course-1"))

	mock.ExpectExec("UPDATE enrollments").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Drop(context.Background(), "stu-1", "course-1"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "enrollment_date", "status", "grade", "is_active",
		"course_name", "course_code", "credits", "semester", "year", "schedule", "classroom", "instructor_name"}).
		AddRow("enr-1", "stu-1", "course-1", time.Now(), "enrolled", nil, true, "Algorithms", "CS201", 3, "fall", 2026, "MWF 9:00", "B-12", "Grace Hopper")
	mock.ExpectQuery("WHERE e.student_id = \\$1 AND e.is_active = TRUE").WithArgs("stu-1").WillReturnRows(rows)

	courses, err := repo.ListActiveByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "CS201", courses[0].CourseCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

// Enrollment outcomes detected inside the enroll transaction.
var (
	ErrEnrollmentActive  = errors.New("enrollment already active")
	ErrEnrollmentDropped = errors.New("enrollment row already exists")
	ErrCourseAtCapacity  = errors.New("course at capacity")
)

const uniqueViolation = "23505"

// EnrollmentRepository manages enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Enroll creates an active enrollment after checking, under a lock on the
// course row, that the course is active and the pair has no active row. Capacity
// is checked before a dropped row is reported. Concurrent calls for the same
// course serialise on the lock.
func (r *EnrollmentRepository) Enroll(ctx context.Context, studentID, courseID string, now time.Time) (enrollment *models.Enrollment, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enroll transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var course struct {
		MaxStudents int                 `db:"max_students"`
		Status      models.CourseStatus `db:"status"`
	}
	const lockQuery = `SELECT max_students, status FROM courses WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &course, lockQuery, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock course: %w", err)
	}
	if course.Status != models.CourseStatusActive {
		err = sql.ErrNoRows
		return nil, err
	}

	var existing struct {
		IsActive bool `db:"is_active"`
	}
	const existingQuery = `SELECT is_active FROM enrollments WHERE student_id = $1 AND course_id = $2`
	err = tx.GetContext(ctx, &existing, existingQuery, studentID, courseID)
	hasRow := err == nil
	switch {
	case hasRow && existing.IsActive:
		err = ErrEnrollmentActive
		return nil, err
	case !hasRow && !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("check existing enrollment: %w", err)
	}

	var active int
	const countQuery = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND is_active = TRUE`
	if err = tx.GetContext(ctx, &active, countQuery, courseID); err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	if active >= course.MaxStudents {
		err = ErrCourseAtCapacity
		return nil, err
	}
	if hasRow {
		err = ErrEnrollmentDropped
		return nil, err
	}

	enrollment = &models.Enrollment{
		ID:             uuid.NewString(),
		StudentID:      studentID,
		CourseID:       courseID,
		EnrollmentDate: now,
		Status:         models.EnrollmentStatusEnrolled,
		IsActive:       true,
	}
	const insertQuery = `INSERT INTO enrollments (id, student_id, course_id, enrollment_date, status, grade, is_active)
VALUES (:id, :student_id, :course_id, :enrollment_date, :status, :grade, :is_active)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, enrollment); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = ErrEnrollmentDropped
			return nil, err
		}
		return nil, fmt.Errorf("insert enrollment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enroll transaction: %w", err)
	}
	return enrollment, nil
}

// Drop deactivates the active enrollment of the pair. sql.ErrNoRows is
// returned when there is nothing to drop.
func (r *EnrollmentRepository) Drop(ctx context.Context, studentID, courseID string) error {
	const query = `UPDATE enrollments SET is_active = FALSE, status = $3 WHERE student_id = $1 AND course_id = $2 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, studentID, courseID, models.EnrollmentStatusDropped)
	if err != nil {
		return fmt.Errorf("drop enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("drop enrollment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IsActive reports whether the student holds an active enrollment in the course.
func (r *EnrollmentRepository) IsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND is_active = TRUE)`
	var active bool
	if err := r.db.GetContext(ctx, &active, query, studentID, courseID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return active, nil
}

// ListActiveByStudent returns the student's active enrollments, newest first.
func (r *EnrollmentRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]models.MyCourse, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.enrollment_date, e.status, e.grade, e.is_active,
	c.name AS course_name, c.code AS course_code, c.credits, c.semester, c.year, c.schedule, c.classroom,
	CASE WHEN u.id IS NULL THEN NULL ELSE u.first_name || ' ' || u.last_name END AS instructor_name
FROM enrollments e
JOIN courses c ON c.id = e.course_id
LEFT JOIN faculty f ON f.id = c.instructor_id
LEFT JOIN users u ON u.id = f.user_id
WHERE e.student_id = $1 AND e.is_active = TRUE
ORDER BY e.enrollment_date DESC`
	var courses []models.MyCourse
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return courses, nil
}

// Roster returns the active enrollments of a course ordered by student name.
func (r *EnrollmentRepository) Roster(ctx context.Context, courseID string) ([]models.RosterEntry, error) {
	const query = `SELECT sp.student_id AS student_number, u.first_name, u.last_name, u.email, sp.year, e.status, e.enrollment_date
FROM enrollments e
JOIN student_profiles sp ON sp.id = e.student_id
JOIN users u ON u.id = sp.user_id
WHERE e.course_id = $1 AND e.is_active = TRUE
ORDER BY u.last_name ASC, u.first_name ASC`
	var entries []models.RosterEntry
	if err := r.db.SelectContext(ctx, &entries, query, courseID); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return entries, nil
}

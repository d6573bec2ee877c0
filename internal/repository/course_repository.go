package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

// CourseRepository reads the course catalog and course content.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseFrom = `FROM courses c
JOIN departments d ON d.id = c.department_id
LEFT JOIN faculty f ON f.id = c.instructor_id
LEFT JOIN users u ON u.id = f.user_id`

const courseSelect = `SELECT c.id, c.name, c.code, c.description, c.department_id, d.name AS department_name, d.code AS department_code,
	c.instructor_id, CASE WHEN u.id IS NULL THEN NULL ELSE u.first_name || ' ' || u.last_name END AS instructor_name,
	c.credits, c.semester, c.year, c.level, c.max_students, c.schedule, c.classroom, c.syllabus, c.status, c.is_featured,
	(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id AND e.is_active = TRUE) AS enrolled_count,
	c.created_at, c.updated_at
` + courseFrom

const courseSummarySelect = `SELECT c.id, c.name, c.code, c.credits, c.semester, c.year, c.level, d.name AS department_name ` + courseFrom

const courseOrder = ` ORDER BY d.name ASC, c.code ASC`

// List returns a page of active courses matching the filter.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	conditions := []string{"c.status = $1"}
	args := []interface{}{models.CourseStatusActive}

	if filter.DepartmentCode != "" {
		conditions = append(conditions, fmt.Sprintf("UPPER(d.code) = UPPER($%d)", len(args)+1))
		args = append(args, filter.DepartmentCode)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("c.level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("c.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if strings.TrimSpace(filter.Search) != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.name) LIKE $%d OR LOWER(c.code) LIKE $%d OR LOWER(c.description) LIKE $%d OR LOWER(u.first_name) LIKE $%d OR LOWER(u.last_name) LIKE $%d)", n, n, n, n, n))
		args = append(args, likePattern(filter.Search))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	page, size := clampPage(filter.Page, filter.PageSize, 12)
	listQuery := fmt.Sprintf("%s%s%s LIMIT %d OFFSET %d", courseSelect, where, courseOrder, size, (page-1)*size)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+courseFrom+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course regardless of status.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, courseSelect+` WHERE c.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// ListPrerequisites returns the prerequisite courses of courseID.
func (r *CourseRepository) ListPrerequisites(ctx context.Context, courseID string) ([]models.CourseSummary, error) {
	query := courseSummarySelect + ` JOIN course_prerequisites cp ON cp.prerequisite_id = c.id WHERE cp.course_id = $1` + courseOrder
	var courses []models.CourseSummary
	if err := r.db.SelectContext(ctx, &courses, query, courseID); err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	return courses, nil
}

// ListFeatured returns up to limit featured active courses.
func (r *CourseRepository) ListFeatured(ctx context.Context, limit int) ([]models.CourseSummary, error) {
	query := courseSummarySelect + ` WHERE c.status = $1 AND c.is_featured = TRUE` + courseOrder + ` LIMIT $2`
	var courses []models.CourseSummary
	if err := r.db.SelectContext(ctx, &courses, query, models.CourseStatusActive, limit); err != nil {
		return nil, fmt.Errorf("list featured courses: %w", err)
	}
	return courses, nil
}

// ListByDepartment returns the active courses of a department.
func (r *CourseRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.CourseSummary, error) {
	query := courseSummarySelect + ` WHERE c.status = $1 AND c.department_id = $2` + courseOrder
	var courses []models.CourseSummary
	if err := r.db.SelectContext(ctx, &courses, query, models.CourseStatusActive, departmentID); err != nil {
		return nil, fmt.Errorf("list department courses: %w", err)
	}
	return courses, nil
}

// ListByInstructor returns the active courses taught by a faculty member.
func (r *CourseRepository) ListByInstructor(ctx context.Context, facultyID string) ([]models.CourseSummary, error) {
	query := courseSummarySelect + ` WHERE c.status = $1 AND c.instructor_id = $2` + courseOrder
	var courses []models.CourseSummary
	if err := r.db.SelectContext(ctx, &courses, query, models.CourseStatusActive, facultyID); err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	return courses, nil
}

// Search matches active courses on name, description or department name.
func (r *CourseRepository) Search(ctx context.Context, term string, limit int) ([]models.CourseSummary, error) {
	query := courseSummarySelect + ` WHERE c.status = $1 AND (LOWER(c.name) LIKE $2 OR LOWER(c.description) LIKE $2 OR LOWER(d.name) LIKE $2)` + courseOrder + ` LIMIT $3`
	var courses []models.CourseSummary
	if err := r.db.SelectContext(ctx, &courses, query, models.CourseStatusActive, likePattern(term), limit); err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}
	return courses, nil
}

// ListPublishedMaterials returns published materials newest first.
func (r *CourseRepository) ListPublishedMaterials(ctx context.Context, courseID string) ([]models.Material, error) {
	const query = `SELECT id, course_id, title, description, material_type, file, url, is_published, upload_date
FROM materials WHERE course_id = $1 AND is_published = TRUE ORDER BY upload_date DESC`
	var materials []models.Material
	if err := r.db.SelectContext(ctx, &materials, query, courseID); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return materials, nil
}

// ListPublishedAssignments returns published assignments by due date.
func (r *CourseRepository) ListPublishedAssignments(ctx context.Context, courseID string) ([]models.Assignment, error) {
	const query = `SELECT id, course_id, title, description, due_date, max_points, attachment, is_published, created_at
FROM assignments WHERE course_id = $1 AND is_published = TRUE ORDER BY due_date ASC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, courseID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

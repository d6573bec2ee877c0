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

// FacultyRepository reads the faculty directory.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs the repository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

const facultySelect = `SELECT f.id, f.user_id, u.first_name, u.last_name, u.email, f.employee_id, f.department_id, d.name AS department_name,
	f.designation, f.specialization, f.qualification, f.experience_years, f.phone, f.office_room, f.office_hours,
	f.profile_picture, f.bio, f.research_interests, f.publications, f.is_featured, f.join_date
FROM faculty f
JOIN users u ON u.id = f.user_id
JOIN departments d ON d.id = f.department_id`

const facultySummarySelect = `SELECT f.id, u.first_name, u.last_name, f.designation, d.name AS department_name, f.specialization, f.profile_picture
FROM faculty f
JOIN users u ON u.id = f.user_id
JOIN departments d ON d.id = f.department_id`

const facultyOrder = ` ORDER BY u.last_name ASC, u.first_name ASC`

// List returns a page of faculty filtered by department and designation.
func (r *FacultyRepository) List(ctx context.Context, filter models.FacultyFilter) ([]models.FacultySummary, int, error) {
	var conditions []string
	var args []interface{}
	if filter.DepartmentCode != "" {
		conditions = append(conditions, fmt.Sprintf("UPPER(d.code) = UPPER($%d)", len(args)+1))
		args = append(args, filter.DepartmentCode)
	}
	if filter.Designation != "" {
		conditions = append(conditions, fmt.Sprintf("f.designation = $%d", len(args)+1))
		args = append(args, filter.Designation)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	page, size := clampPage(filter.Page, filter.PageSize, 12)
	listQuery := fmt.Sprintf("%s%s%s LIMIT %d OFFSET %d", facultySummarySelect, where, facultyOrder, size, (page-1)*size)
	var faculty []models.FacultySummary
	if err := r.db.SelectContext(ctx, &faculty, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list faculty: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM faculty f JOIN departments d ON d.id = f.department_id"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count faculty: %w", err)
	}
	return faculty, total, nil
}

// FindByID returns a faculty member by identifier.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, facultySelect+` WHERE f.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty: %w", err)
	}
	return &faculty, nil
}

// FindByUserID returns the faculty profile attached to a user.
func (r *FacultyRepository) FindByUserID(ctx context.Context, userID string) (*models.Faculty, error) {
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, facultySelect+` WHERE f.user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty by user: %w", err)
	}
	return &faculty, nil
}

// ListFeatured returns up to limit featured faculty.
func (r *FacultyRepository) ListFeatured(ctx context.Context, limit int) ([]models.FacultySummary, error) {
	var faculty []models.FacultySummary
	query := facultySummarySelect + ` WHERE f.is_featured = TRUE` + facultyOrder + ` LIMIT $1`
	if err := r.db.SelectContext(ctx, &faculty, query, limit); err != nil {
		return nil, fmt.Errorf("list featured faculty: %w", err)
	}
	return faculty, nil
}

// ListSample returns the first limit faculty in directory order.
func (r *FacultyRepository) ListSample(ctx context.Context, limit int) ([]models.FacultySummary, error) {
	var faculty []models.FacultySummary
	if err := r.db.SelectContext(ctx, &faculty, facultySummarySelect+facultyOrder+` LIMIT $1`, limit); err != nil {
		return nil, fmt.Errorf("list faculty sample: %w", err)
	}
	return faculty, nil
}

// ListByDepartment returns every faculty member of a department.
func (r *FacultyRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.FacultySummary, error) {
	var faculty []models.FacultySummary
	if err := r.db.SelectContext(ctx, &faculty, facultySummarySelect+` WHERE f.department_id = $1`+facultyOrder, departmentID); err != nil {
		return nil, fmt.Errorf("list department faculty: %w", err)
	}
	return faculty, nil
}

// Search matches first name, last name, department name or specialization.
func (r *FacultyRepository) Search(ctx context.Context, term string, limit int) ([]models.FacultySummary, error) {
	pattern := likePattern(term)
	query := facultySummarySelect + ` WHERE LOWER(u.first_name) LIKE $1 OR LOWER(u.last_name) LIKE $1 OR LOWER(d.name) LIKE $1 OR LOWER(f.specialization) LIKE $1` + facultyOrder + ` LIMIT $2`
	var faculty []models.FacultySummary
	if err := r.db.SelectContext(ctx, &faculty, query, pattern, limit); err != nil {
		return nil, fmt.Errorf("search faculty: %w", err)
	}
	return faculty, nil
}

// UpdatePicture records the stored profile picture path.
func (r *FacultyRepository) UpdatePicture(ctx context.Context, facultyID, path string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE faculty SET profile_picture = $2 WHERE id = $1`, facultyID, path); err != nil {
		return fmt.Errorf("update faculty picture: %w", err)
	}
	return nil
}

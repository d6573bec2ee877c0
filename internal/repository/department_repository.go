package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

// DepartmentRepository reads academic departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

const departmentSelect = `SELECT d.id, d.name, d.code, d.description, d.head_of_department_id, d.established_year, d.created_at,
	(SELECT COUNT(*) FROM courses c WHERE c.department_id = d.id AND c.status = 'ACTIVE') AS active_course_count
FROM departments d`

// List returns every department ordered by name with its active course count.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, departmentSelect+` ORDER BY d.name ASC`); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByID returns a department by identifier.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	var department models.Department
	if err := r.db.GetContext(ctx, &department, departmentSelect+` WHERE d.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find department: %w", err)
	}
	return &department, nil
}

// FindByCode returns a department by its unique code.
func (r *DepartmentRepository) FindByCode(ctx context.Context, code string) (*models.Department, error) {
	var department models.Department
	if err := r.db.GetContext(ctx, &department, departmentSelect+` WHERE UPPER(d.code) = UPPER($1)`, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find department by code: %w", err)
	}
	return &department, nil
}

// Exists reports whether a department id is known.
func (r *DepartmentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("check department exists: %w", err)
	}
	return exists, nil
}

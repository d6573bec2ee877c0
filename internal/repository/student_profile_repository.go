package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

// StudentProfileRepository reads and edits student profiles.
type StudentProfileRepository struct {
	db *sqlx.DB
}

// NewStudentProfileRepository constructs the repository.
func NewStudentProfileRepository(db *sqlx.DB) *StudentProfileRepository {
	return &StudentProfileRepository{db: db}
}

const studentProfileSelect = `SELECT sp.id, sp.user_id, sp.student_id, sp.department_id, d.name AS department_name, sp.year, sp.phone, sp.address,
	sp.date_of_birth, sp.profile_picture, sp.enrollment_date, sp.status
FROM student_profiles sp
JOIN departments d ON d.id = sp.department_id`

// FindByUserID returns the active student profile attached to a user.
func (r *StudentProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	query := studentProfileSelect + ` WHERE sp.user_id = $1 AND sp.status = $2`
	if err := r.db.GetContext(ctx, &profile, query, userID, models.ProfileStatusActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student profile: %w", err)
	}
	return &profile, nil
}

// ExistsByStudentID reports whether a student number is already used.
func (r *StudentProfileRepository) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM student_profiles WHERE student_id = $1)`, studentID); err != nil {
		return false, fmt.Errorf("check student id: %w", err)
	}
	return exists, nil
}

// UpdatePicture records the stored profile picture path.
func (r *StudentProfileRepository) UpdatePicture(ctx context.Context, profileID, path string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE student_profiles SET profile_picture = $2 WHERE id = $1`, profileID, path); err != nil {
		return fmt.Errorf("update student picture: %w", err)
	}
	return nil
}

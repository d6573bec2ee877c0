package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

// ErrEmailTaken is returned when a profile update collides with another account's email.
var ErrEmailTaken = errors.New("email already in use")

// ProfileRepository writes identity and student profile edits together.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Update applies the identity change and, when profileID is non-empty, the
// student profile change inside one transaction.
func (r *ProfileRepository) Update(ctx context.Context, userID string, user models.UserUpdate, profileID string, profile *models.StudentProfileUpdate, now time.Time) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin profile transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const userQuery = `UPDATE users SET first_name = $2, last_name = $3, email = $4, updated_at = $5 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, userQuery, userID, user.FirstName, user.LastName, user.Email, now); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = ErrEmailTaken
			return err
		}
		return fmt.Errorf("update user identity: %w", err)
	}

	if profileID != "" && profile != nil {
		const profileQuery = `UPDATE student_profiles SET department_id = $2, year = $3, phone = $4, address = $5, date_of_birth = $6 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, profileQuery, profileID, profile.DepartmentID, profile.Year, profile.Phone, profile.Address, profile.DateOfBirth); err != nil {
			return fmt.Errorf("update student profile: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit profile transaction: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

// AnnouncementRepository handles persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository constructs the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

const announcementFrom = `FROM announcements a
JOIN users u ON u.id = a.author_id
LEFT JOIN departments d ON d.id = a.department_id`

const announcementSelect = `SELECT a.id, a.title, a.content, a.author_id, u.first_name || ' ' || u.last_name AS author_name,
	a.department_id, d.name AS department_name, a.priority, a.target_audience, a.expiry_date, a.attachment,
	a.is_published, a.is_pinned, a.created_at, a.updated_at
` + announcementFrom

const announcementOrder = ` ORDER BY a.is_pinned DESC, a.created_at DESC`

// List returns a page of published announcements matching the filter.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	conditions := []string{"a.is_published = TRUE"}
	var args []interface{}

	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("a.priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
	}
	if filter.DepartmentCode != "" {
		conditions = append(conditions, fmt.Sprintf("UPPER(d.code) = UPPER($%d)", len(args)+1))
		args = append(args, filter.DepartmentCode)
	}
	if strings.TrimSpace(filter.Search) != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(a.title) LIKE $%d OR LOWER(a.content) LIKE $%d OR LOWER(a.target_audience) LIKE $%d)", n, n, n))
		args = append(args, likePattern(filter.Search))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	page, size := clampPage(filter.Page, filter.PageSize, 15)
	listQuery := fmt.Sprintf("%s%s%s LIMIT %d OFFSET %d", announcementSelect, where, announcementOrder, size, (page-1)*size)
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+announcementFrom+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return announcements, total, nil
}

// ListPinned returns up to limit pinned published announcements.
func (r *AnnouncementRepository) ListPinned(ctx context.Context, limit int) ([]models.Announcement, error) {
	query := announcementSelect + ` WHERE a.is_published = TRUE AND a.is_pinned = TRUE` + announcementOrder + ` LIMIT $1`
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, limit); err != nil {
		return nil, fmt.Errorf("list pinned announcements: %w", err)
	}
	return announcements, nil
}

// FindPublished returns a published announcement by identifier.
func (r *AnnouncementRepository) FindPublished(ctx context.Context, id string) (*models.Announcement, error) {
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, announcementSelect+` WHERE a.id = $1 AND a.is_published = TRUE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find announcement: %w", err)
	}
	return &announcement, nil
}

// ListRelated returns other published announcements of the same department.
// Announcements without a department relate to each other.
func (r *AnnouncementRepository) ListRelated(ctx context.Context, announcement *models.Announcement, limit int) ([]models.Announcement, error) {
	query := announcementSelect + ` WHERE a.is_published = TRUE AND a.department_id IS NOT DISTINCT FROM $1 AND a.id <> $2` + announcementOrder + ` LIMIT $3`
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, announcement.DepartmentID, announcement.ID, limit); err != nil {
		return nil, fmt.Errorf("list related announcements: %w", err)
	}
	return announcements, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	announcement.CreatedAt, announcement.UpdatedAt = now, now
	const query = `INSERT INTO announcements (id, title, content, author_id, department_id, priority, target_audience, expiry_date, attachment, is_published, is_pinned, created_at, updated_at)
VALUES (:id, :title, :content, :author_id, :department_id, :priority, :target_audience, :expiry_date, :attachment, :is_published, :is_pinned, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

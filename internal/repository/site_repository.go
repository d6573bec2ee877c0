package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

// SiteRepository serves the public pages: university info, contact messages and the gallery.
type SiteRepository struct {
	db *sqlx.DB
}

// NewSiteRepository constructs the repository.
func NewSiteRepository(db *sqlx.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// UniversityInfo returns the institution row, or nil when none is configured.
func (r *SiteRepository) UniversityInfo(ctx context.Context) (*models.UniversityInfo, error) {
	const query = `SELECT id, name, description, address, phone, email, established_year, total_students, total_faculty, total_programs, updated_at
FROM university_info ORDER BY updated_at DESC LIMIT 1`
	var info models.UniversityInfo
	if err := r.db.GetContext(ctx, &info, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get university info: %w", err)
	}
	return &info, nil
}

// CreateContactMessage stores a message from the public contact form.
func (r *SiteRepository) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO contact_messages (id, name, email, subject, message, is_read, created_at) VALUES (:id, :name, :email, :subject, :message, :is_read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create contact message: %w", err)
	}
	return nil
}

// ListImages returns a page of gallery images, newest first.
func (r *SiteRepository) ListImages(ctx context.Context, page, size int) ([]models.GalleryImage, int, error) {
	page, size = clampPage(page, size, 12)
	query := fmt.Sprintf(`SELECT id, title, image, thumbnail, description, is_featured, uploaded_at FROM gallery_images ORDER BY uploaded_at DESC LIMIT %d OFFSET %d`, size, (page-1)*size)
	var images []models.GalleryImage
	if err := r.db.SelectContext(ctx, &images, query); err != nil {
		return nil, 0, fmt.Errorf("list gallery images: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM gallery_images`); err != nil {
		return nil, 0, fmt.Errorf("count gallery images: %w", err)
	}
	return images, total, nil
}

// ListFeaturedImages returns up to limit featured images.
func (r *SiteRepository) ListFeaturedImages(ctx context.Context, limit int) ([]models.GalleryImage, error) {
	const query = `SELECT id, title, image, thumbnail, description, is_featured, uploaded_at FROM gallery_images WHERE is_featured = TRUE ORDER BY uploaded_at DESC LIMIT $1`
	var images []models.GalleryImage
	if err := r.db.SelectContext(ctx, &images, query, limit); err != nil {
		return nil, fmt.Errorf("list featured images: %w", err)
	}
	return images, nil
}

// ListVideos returns a page of gallery videos, newest first.
func (r *SiteRepository) ListVideos(ctx context.Context, page, size int) ([]models.GalleryVideo, int, error) {
	page, size = clampPage(page, size, 8)
	query := fmt.Sprintf(`SELECT id, title, video_url, thumbnail, description, is_featured, uploaded_at FROM gallery_videos ORDER BY uploaded_at DESC LIMIT %d OFFSET %d`, size, (page-1)*size)
	var videos []models.GalleryVideo
	if err := r.db.SelectContext(ctx, &videos, query); err != nil {
		return nil, 0, fmt.Errorf("list gallery videos: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM gallery_videos`); err != nil {
		return nil, 0, fmt.Errorf("count gallery videos: %w", err)
	}
	return videos, total, nil
}

// CreateImage inserts a gallery image.
func (r *SiteRepository) CreateImage(ctx context.Context, image *models.GalleryImage) error {
	if image.ID == "" {
		image.ID = uuid.NewString()
	}
	if image.UploadedAt.IsZero() {
		image.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO gallery_images (id, title, image, thumbnail, description, is_featured, uploaded_at) VALUES (:id, :title, :image, :thumbnail, :description, :is_featured, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, image); err != nil {
		return fmt.Errorf("create gallery image: %w", err)
	}
	return nil
}

// SetImageThumbnail records the thumbnail generated for an image.
func (r *SiteRepository) SetImageThumbnail(ctx context.Context, id, thumbnail string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE gallery_images SET thumbnail = $2 WHERE id = $1`, id, thumbnail); err != nil {
		return fmt.Errorf("set gallery thumbnail: %w", err)
	}
	return nil
}

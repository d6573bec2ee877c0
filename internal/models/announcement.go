package models

import "time"

// AnnouncementPriority ranks announcements.
type AnnouncementPriority string

const (
	PriorityLow    AnnouncementPriority = "low"
	PriorityMedium AnnouncementPriority = "medium"
	PriorityHigh   AnnouncementPriority = "high"
	PriorityUrgent AnnouncementPriority = "urgent"
)

// Announcement represents a persisted announcement row.
type Announcement struct {
	ID             string               `db:"id" json:"id"`
	Title          string               `db:"title" json:"title"`
	Content        string               `db:"content" json:"content"`
	AuthorID       string               `db:"author_id" json:"author_id"`
	AuthorName     string               `db:"author_name" json:"author_name"`
	DepartmentID   *string              `db:"department_id" json:"department_id,omitempty"`
	DepartmentName *string              `db:"department_name" json:"department_name,omitempty"`
	Priority       AnnouncementPriority `db:"priority" json:"priority"`
	TargetAudience string               `db:"target_audience" json:"target_audience"`
	ExpiryDate     *time.Time           `db:"expiry_date" json:"expiry_date,omitempty"`
	Attachment     *string              `db:"attachment" json:"attachment,omitempty"`
	IsPublished    bool                 `db:"is_published" json:"is_published"`
	IsPinned       bool                 `db:"is_pinned" json:"is_pinned"`
	CreatedAt      time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the announcement has no expiry or has not yet expired.
func (a Announcement) IsActive(now time.Time) bool {
	return a.ExpiryDate == nil || !now.After(*a.ExpiryDate)
}

// AnnouncementView carries the activity flag computed at read time.
type AnnouncementView struct {
	Announcement
	IsActive bool `json:"is_active"`
}

// NewAnnouncementView classifies a against now.
func NewAnnouncementView(a Announcement, now time.Time) AnnouncementView {
	return AnnouncementView{Announcement: a, IsActive: a.IsActive(now)}
}

// AnnouncementFilter narrows the public announcement listing.
type AnnouncementFilter struct {
	Priority       AnnouncementPriority
	DepartmentCode string
	Search         string
	Page           int
	PageSize       int
}

// AnnouncementDetail includes announcements from the same department.
type AnnouncementDetail struct {
	AnnouncementView
	Related []AnnouncementView `json:"related_announcements"`
}

// CreateAnnouncementRequest is the payload for publishing an announcement.
type CreateAnnouncementRequest struct {
	Title          string               `json:"title" validate:"required,max=200"`
	Content        string               `json:"content" validate:"required"`
	DepartmentID   *string              `json:"department_id" validate:"omitempty,uuid"`
	Priority       AnnouncementPriority `json:"priority" validate:"omitempty,announcement_priority"`
	TargetAudience string               `json:"target_audience" validate:"max=100"`
	ExpiryDate     *time.Time           `json:"expiry_date"`
	IsPublished    bool                 `json:"is_published"`
	IsPinned       bool                 `json:"is_pinned"`
}

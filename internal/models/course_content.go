package models

import "time"

// MaterialType classifies course materials.
type MaterialType string

const (
	MaterialLecture MaterialType = "lecture"
	MaterialReading MaterialType = "reading"
	MaterialVideo   MaterialType = "video"
	MaterialOther   MaterialType = "other"
)

// Assignment is coursework published to enrolled students.
type Assignment struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	DueDate     time.Time `db:"due_date" json:"due_date"`
	MaxPoints   int       `db:"max_points" json:"max_points"`
	Attachment  *string   `db:"attachment" json:"attachment,omitempty"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Material is a file or link attached to a course.
type Material struct {
	ID           string       `db:"id" json:"id"`
	CourseID     string       `db:"course_id" json:"course_id"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	MaterialType MaterialType `db:"material_type" json:"material_type"`
	File         *string      `db:"file" json:"file,omitempty"`
	URL          *string      `db:"url" json:"url,omitempty"`
	IsPublished  bool         `db:"is_published" json:"is_published"`
	UploadDate   time.Time    `db:"upload_date" json:"upload_date"`
}

package models

import "time"

// UniversityInfo is the single row describing the institution.
type UniversityInfo struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	Address         string    `db:"address" json:"address"`
	Phone           string    `db:"phone" json:"phone"`
	Email           string    `db:"email" json:"email"`
	EstablishedYear int       `db:"established_year" json:"established_year"`
	TotalStudents   int       `db:"total_students" json:"total_students"`
	TotalFaculty    int       `db:"total_faculty" json:"total_faculty"`
	TotalPrograms   int       `db:"total_programs" json:"total_programs"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" validate:"required,max=100"`
	Email     string    `db:"email" json:"email" validate:"required,email"`
	Subject   string    `db:"subject" json:"subject" validate:"required,max=200"`
	Message   string    `db:"message" json:"message" validate:"required,max=5000"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GalleryImage is a photo shown on the public gallery.
type GalleryImage struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Image       string    `db:"image" json:"image"`
	Thumbnail   *string   `db:"thumbnail" json:"thumbnail,omitempty"`
	Description string    `db:"description" json:"description"`
	IsFeatured  bool      `db:"is_featured" json:"is_featured"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// GalleryVideo is an externally hosted video shown on the public gallery.
type GalleryVideo struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	VideoURL    string    `db:"video_url" json:"video_url"`
	Thumbnail   *string   `db:"thumbnail" json:"thumbnail,omitempty"`
	Description string    `db:"description" json:"description"`
	IsFeatured  bool      `db:"is_featured" json:"is_featured"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// SearchResults groups site-wide search hits.
type SearchResults struct {
	Query        string           `json:"query"`
	Courses      []CourseSummary  `json:"courses"`
	Faculty      []FacultySummary `json:"faculty"`
	Events       []EventView      `json:"events"`
	TotalResults int              `json:"total_results"`
}

// HomePage aggregates the landing page blocks.
type HomePage struct {
	University      *UniversityInfo  `json:"university"`
	FeaturedFaculty []FacultySummary `json:"featured_faculty"`
	RecentEvents    []EventView      `json:"recent_events"`
	FeaturedCourses []CourseSummary  `json:"featured_courses"`
	GalleryImages   []GalleryImage   `json:"gallery_images"`
	FromCache       bool             `json:"-"`
}

// AboutPage is the university info with a faculty sample.
type AboutPage struct {
	University *UniversityInfo  `json:"university"`
	Faculty    []FacultySummary `json:"faculty"`
}

// GalleryPage holds independently paginated images and videos.
type GalleryPage struct {
	Images          []GalleryImage `json:"images"`
	ImagePagination Pagination     `json:"image_pagination"`
	Videos          []GalleryVideo `json:"videos"`
	VideoPagination Pagination     `json:"video_pagination"`
}

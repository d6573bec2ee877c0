package models

import "time"

// Semester identifies the term a course runs in.
type Semester string

const (
	SemesterSpring Semester = "spring"
	SemesterSummer Semester = "summer"
	SemesterFall   Semester = "fall"
)

// CourseLevel is the academic level of a course.
type CourseLevel string

const (
	LevelUndergraduate CourseLevel = "undergraduate"
	LevelGraduate      CourseLevel = "graduate"
	LevelPostgraduate  CourseLevel = "postgraduate"
)

// CourseStatus expresses soft deletion of a course.
type CourseStatus string

const (
	CourseStatusActive   CourseStatus = "ACTIVE"
	CourseStatusInactive CourseStatus = "INACTIVE"
)

// DefaultMaxStudents is the capacity used when none is supplied.
const DefaultMaxStudents = 50

// Course is a catalog entry offered in one semester of one year.
type Course struct {
	ID             string       `db:"id" json:"id"`
	Name           string       `db:"name" json:"name"`
	Code           string       `db:"code" json:"code"`
	Description    string       `db:"description" json:"description"`
	DepartmentID   string       `db:"department_id" json:"department_id"`
	DepartmentName string       `db:"department_name" json:"department_name"`
	DepartmentCode string       `db:"department_code" json:"department_code"`
	InstructorID   *string      `db:"instructor_id" json:"instructor_id,omitempty"`
	InstructorName *string      `db:"instructor_name" json:"instructor_name,omitempty"`
	Credits        int          `db:"credits" json:"credits"`
	Semester       Semester     `db:"semester" json:"semester"`
	Year           int          `db:"year" json:"year"`
	Level          CourseLevel  `db:"level" json:"level"`
	MaxStudents    int          `db:"max_students" json:"max_students"`
	Schedule       string       `db:"schedule" json:"schedule"`
	Classroom      string       `db:"classroom" json:"classroom"`
	Syllabus       *string      `db:"syllabus" json:"-"`
	Status         CourseStatus `db:"status" json:"status"`
	IsFeatured     bool         `db:"is_featured" json:"is_featured"`
	EnrolledCount  int          `db:"enrolled_count" json:"enrolled_count"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// Active reports whether the course is open in the catalog.
func (c Course) Active() bool {
	return c.Status == CourseStatusActive
}

// AvailableSpots returns the remaining capacity, never negative.
func (c Course) AvailableSpots() int {
	if spots := c.MaxStudents - c.EnrolledCount; spots > 0 {
		return spots
	}
	return 0
}

// IsFull reports whether active enrollments have reached capacity.
func (c Course) IsFull() bool {
	return c.EnrolledCount >= c.MaxStudents
}

// CourseSummary is the compact form used in nested listings.
type CourseSummary struct {
	ID             string      `db:"id" json:"id"`
	Name           string      `db:"name" json:"name"`
	Code           string      `db:"code" json:"code"`
	Credits        int         `db:"credits" json:"credits"`
	Semester       Semester    `db:"semester" json:"semester"`
	Year           int         `db:"year" json:"year"`
	Level          CourseLevel `db:"level" json:"level"`
	DepartmentName string      `db:"department_name" json:"department_name"`
}

// CourseFilter narrows the public catalog.
type CourseFilter struct {
	DepartmentCode string
	Level          CourseLevel
	Semester       Semester
	Search         string
	Page           int
	PageSize       int
}

// CourseListItem adds derived capacity fields for catalog responses.
type CourseListItem struct {
	Course
	AvailableSpots int  `json:"available_spots"`
	IsFull         bool `json:"is_full"`
}

// NewCourseListItem derives the capacity fields from c.
func NewCourseListItem(c Course) CourseListItem {
	return CourseListItem{Course: c, AvailableSpots: c.AvailableSpots(), IsFull: c.IsFull()}
}

// CourseDetail is a course as seen by a particular viewer.
type CourseDetail struct {
	CourseListItem
	IsEnrolled    bool            `json:"is_enrolled"`
	HasSyllabus   bool            `json:"has_syllabus"`
	Prerequisites []CourseSummary `json:"prerequisites"`
	Materials     []Material      `json:"materials"`
	Assignments   []Assignment    `json:"assignments"`
}

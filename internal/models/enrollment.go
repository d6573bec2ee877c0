package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusDropped   EnrollmentStatus = "dropped"
	EnrollmentStatusFailed    EnrollmentStatus = "failed"
)

// Enrollment links a student profile to a course. A (student, course) pair
// has at most one row; dropping keeps the row with IsActive false.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	CourseID       string           `db:"course_id" json:"course_id"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollment_date"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	Grade          *string          `db:"grade" json:"grade,omitempty"`
	IsActive       bool             `db:"is_active" json:"is_active"`
}

// MyCourse is an active enrollment joined with its course and instructor.
type MyCourse struct {
	Enrollment
	CourseName     string   `db:"course_name" json:"course_name"`
	CourseCode     string   `db:"course_code" json:"course_code"`
	Credits        int      `db:"credits" json:"credits"`
	Semester       Semester `db:"semester" json:"semester"`
	Year           int      `db:"year" json:"year"`
	Schedule       string   `db:"schedule" json:"schedule"`
	Classroom      string   `db:"classroom" json:"classroom"`
	InstructorName *string  `db:"instructor_name" json:"instructor_name,omitempty"`
}

// RosterEntry is one line of a course roster export.
type RosterEntry struct {
	StudentNumber  string           `db:"student_number"`
	FirstName      string           `db:"first_name"`
	LastName       string           `db:"last_name"`
	Email          string           `db:"email"`
	Year           StudentYear      `db:"year"`
	Status         EnrollmentStatus `db:"status"`
	EnrollmentDate time.Time        `db:"enrollment_date"`
}

package models

import "time"

// StudentYear is the academic year of a student.
type StudentYear string

const (
	StudentYearFirst    StudentYear = "1"
	StudentYearSecond   StudentYear = "2"
	StudentYearThird    StudentYear = "3"
	StudentYearFourth   StudentYear = "4"
	StudentYearGraduate StudentYear = "graduate"
)

// ProfileStatus expresses soft deletion of a student profile.
type ProfileStatus string

const (
	ProfileStatusActive   ProfileStatus = "ACTIVE"
	ProfileStatusInactive ProfileStatus = "INACTIVE"
)

// StudentProfile extends a User who is a student.
type StudentProfile struct {
	ID             string        `db:"id" json:"id"`
	UserID         string        `db:"user_id" json:"user_id"`
	StudentID      string        `db:"student_id" json:"student_id"`
	DepartmentID   string        `db:"department_id" json:"department_id"`
	DepartmentName string        `db:"department_name" json:"department_name,omitempty"`
	Year           StudentYear   `db:"year" json:"year"`
	Phone          string        `db:"phone" json:"phone"`
	Address        string        `db:"address" json:"address"`
	DateOfBirth    *time.Time    `db:"date_of_birth" json:"date_of_birth,omitempty"`
	ProfilePicture *string       `db:"profile_picture" json:"profile_picture,omitempty"`
	EnrollmentDate time.Time     `db:"enrollment_date" json:"enrollment_date"`
	Status         ProfileStatus `db:"status" json:"status"`
}

// Active reports whether the profile has not been soft-deleted.
func (p StudentProfile) Active() bool {
	return p.Status == ProfileStatusActive
}

package models

import "time"

// Designation is the academic rank of a faculty member.
type Designation string

const (
	DesignationProfessor          Designation = "professor"
	DesignationAssociateProfessor Designation = "associate_professor"
	DesignationAssistantProfessor Designation = "assistant_professor"
	DesignationLecturer           Designation = "lecturer"
	DesignationInstructor         Designation = "instructor"
)

// Faculty extends a User who teaches.
type Faculty struct {
	ID                string      `db:"id" json:"id"`
	UserID            string      `db:"user_id" json:"user_id"`
	FirstName         string      `db:"first_name" json:"first_name"`
	LastName          string      `db:"last_name" json:"last_name"`
	Email             string      `db:"email" json:"email"`
	EmployeeID        string      `db:"employee_id" json:"employee_id"`
	DepartmentID      string      `db:"department_id" json:"department_id"`
	DepartmentName    string      `db:"department_name" json:"department_name"`
	Designation       Designation `db:"designation" json:"designation"`
	Specialization    string      `db:"specialization" json:"specialization"`
	Qualification     string      `db:"qualification" json:"qualification"`
	ExperienceYears   int         `db:"experience_years" json:"experience_years"`
	Phone             string      `db:"phone" json:"phone"`
	OfficeRoom        string      `db:"office_room" json:"office_room"`
	OfficeHours       string      `db:"office_hours" json:"office_hours"`
	ProfilePicture    *string     `db:"profile_picture" json:"profile_picture,omitempty"`
	Bio               string      `db:"bio" json:"bio"`
	ResearchInterests string      `db:"research_interests" json:"research_interests"`
	Publications      string      `db:"publications" json:"publications"`
	IsFeatured        bool        `db:"is_featured" json:"is_featured"`
	JoinDate          time.Time   `db:"join_date" json:"join_date"`
}

// FullName returns "First Last".
func (f Faculty) FullName() string {
	return f.FirstName + " " + f.LastName
}

// FacultySummary is the compact form used inside other listings.
type FacultySummary struct {
	ID             string      `db:"id" json:"id"`
	FirstName      string      `db:"first_name" json:"first_name"`
	LastName       string      `db:"last_name" json:"last_name"`
	Designation    Designation `db:"designation" json:"designation"`
	DepartmentName string      `db:"department_name" json:"department_name"`
	Specialization string      `db:"specialization" json:"specialization"`
	ProfilePicture *string     `db:"profile_picture" json:"profile_picture,omitempty"`
}

// FacultyFilter narrows the faculty directory.
type FacultyFilter struct {
	DepartmentCode string
	Designation    Designation
	Page           int
	PageSize       int
}

// FacultyDetail is a faculty member with the active courses they teach.
type FacultyDetail struct {
	Faculty
	Courses []CourseSummary `json:"courses"`
}

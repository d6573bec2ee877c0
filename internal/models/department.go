package models

import "time"

// Department groups faculty, students and courses.
type Department struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Code              string    `db:"code" json:"code"`
	Description       string    `db:"description" json:"description"`
	HeadOfDepartment  *string   `db:"head_of_department_id" json:"head_of_department_id,omitempty"`
	EstablishedYear   *int      `db:"established_year" json:"established_year,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	ActiveCourseCount int       `db:"active_course_count" json:"active_course_count"`
}

// DepartmentDetail is a department with its active courses and faculty.
type DepartmentDetail struct {
	Department
	Courses []CourseSummary  `json:"courses"`
	Faculty []FacultySummary `json:"faculty"`
}

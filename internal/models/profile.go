package models

import "time"

// Profile is the full identity view of a user.
type Profile struct {
	User    User            `json:"user"`
	Student *StudentProfile `json:"student_profile"`
	Faculty *Faculty        `json:"faculty_profile"`
}

// UpdateProfileRequest edits the identity and, for students, the profile.
type UpdateProfileRequest struct {
	User    UserUpdate            `json:"user" validate:"required"`
	Student *StudentProfileUpdate `json:"student_profile"`
}

// UserUpdate holds the editable identity fields.
type UserUpdate struct {
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email"`
}

// StudentProfileUpdate holds the editable student profile fields.
type StudentProfileUpdate struct {
	DepartmentID string      `json:"department_id" validate:"required,uuid"`
	Year         StudentYear `json:"year" validate:"required,student_year"`
	Phone        string      `json:"phone" validate:"omitempty,max=15"`
	Address      string      `json:"address" validate:"max=500"`
	DateOfBirth  *time.Time  `json:"date_of_birth"`
}

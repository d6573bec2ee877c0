package models

import (
	"strings"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleFaculty    UserRole = "FACULTY"
	RoleStudent    UserRole = "STUDENT"
)

// IsStaff reports whether the role may publish content and view rosters.
func (r UserRole) IsStaff() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleFaculty
}

// IsAdmin reports whether the role has administrative access.
func (r UserRole) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// NewPagination clamps page and size and returns the metadata block.
func NewPagination(page, size, total int) Pagination {
	if page < 1 {
		page = 1
	}
	return Pagination{Page: page, PageSize: size, TotalCount: total}
}

// TotalPages returns the number of pages available for the listing.
func (p Pagination) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

// Viewer identifies the caller of a read operation. The zero value is anonymous.
type Viewer struct {
	UserID string
	Role   UserRole
}

// Authenticated reports whether the viewer is signed in.
func (v Viewer) Authenticated() bool {
	return v.UserID != ""
}

package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStudent UserRole = "STUDENT"
)

// Student is the resolved identity behind an email: the group it belongs to
// and the study year, taken from the emails_groups mapping. Immutable within
// a term.
type Student struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	StudentGroup string    `db:"student_group" json:"student_group"`
	Year         int       `db:"year" json:"year"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// VerificationCode is a short-lived login code, stored hashed.
type VerificationCode struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	CodeHash  string    `db:"code_hash" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Consumed  bool      `db:"consumed" json:"consumed"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CompletedCourse records a course a student already passed; such courses
// are excluded from the student-facing catalogue.
type CompletedCourse struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	CourseTitle string    `db:"course_title" json:"course_title"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

package models

import "time"

// UserRole distinguishes the two account types in the directory.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleAdmin   UserRole = "ADMIN"
)

// Valid returns true when the role is a supported value.
func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// Student is a directory entry. The roll number is the stable identity used
// everywhere, including the attendance uniqueness key; login aliases never
// leak into attendance records.
type Student struct {
	RollNumber   string    `db:"roll_number" json:"roll_number"`
	FullName     string    `db:"full_name" json:"full_name"`
	ClassName    string    `db:"class_name" json:"class_name"`
	Role         UserRole  `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter scopes directory listings.
type StudentFilter struct {
	ClassName string
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
}

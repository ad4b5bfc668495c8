package models

import "time"

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	ClassName    *string    `db:"class_name" json:"className,omitempty"`
	Department   string     `db:"department" json:"department,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// ClassNameValue returns the class name or an empty string.
func (u *User) ClassNameValue() string {
	if u == nil || u.ClassName == nil {
		return ""
	}
	return *u.ClassName
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *Role
	ClassName string
	Search    string
	Limit     int
	Offset    int
}

// UserSummary is the populated subset of a user embedded into other entities.
type UserSummary struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
	Role  Role   `db:"role" json:"role"`
}

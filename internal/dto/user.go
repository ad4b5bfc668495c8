package dto

import "github.com/noah-isme/campus-api/internal/models"

// CreateUserRequest is the admin payload for provisioning accounts.
type CreateUserRequest struct {
	Name       string      `json:"name" validate:"required"`
	Email      string      `json:"email" validate:"required,email"`
	Password   string      `json:"password" validate:"required,min=6"`
	Role       models.Role `json:"role" validate:"required"`
	ClassName  string      `json:"className"`
	Department string      `json:"department"`
}

// CreateClassRequest is the admin payload for classes.
type CreateClassRequest struct {
	ClassName      string                `json:"className" validate:"required"`
	Department     string                `json:"department"`
	ClassTeacherID string                `json:"classTeacherId"`
	Subjects       []ClassSubjectRequest `json:"subjects" validate:"dive"`
}

// ClassSubjectRequest binds a subject to its teacher.
type ClassSubjectRequest struct {
	Name      string `json:"name" validate:"required"`
	TeacherID string `json:"teacherId"`
}

// AssignStudentRequest is the body of POST /classes/:id/students.
type AssignStudentRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

package models

import "time"

// Class is a student group with a class teacher and per-subject teachers.
type Class struct {
	ID             string         `db:"id" json:"id"`
	ClassName      string         `db:"class_name" json:"className"`
	Department     string         `db:"department" json:"department"`
	ClassTeacherID *string        `db:"class_teacher_id" json:"classTeacherId,omitempty"`
	Subjects       []ClassSubject `db:"-" json:"subjects"`
	StudentIDs     []string       `db:"-" json:"studentIds,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// ClassSubject binds a subject name to the faculty member teaching it in a class.
type ClassSubject struct {
	ClassID   string  `db:"class_id" json:"-"`
	Name      string  `db:"name" json:"name"`
	TeacherID *string `db:"teacher_id" json:"teacherId,omitempty"`
	Position  int     `db:"position" json:"-"`
}

// Subject returns the named subject of the class.
func (c *Class) Subject(name string) (*ClassSubject, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Subjects {
		if c.Subjects[i].Name == name {
			return &c.Subjects[i], true
		}
	}
	return nil, false
}

// HasStudent reports whether the student id belongs to the class.
func (c *Class) HasStudent(studentID string) bool {
	if c == nil {
		return false
	}
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

package models

import (
	"strings"
	"time"
)

// AssignmentStatus is the visibility of an assignment to students.
type AssignmentStatus string

const (
	AssignmentPublished AssignmentStatus = "Published"
	AssignmentClosed    AssignmentStatus = "Closed"
)

// ParseAssignmentStatus maps raw input onto a status. Anything but "closed" publishes,
// which covers clients that still send "Draft".
func ParseAssignmentStatus(raw string) AssignmentStatus {
	if strings.EqualFold(strings.TrimSpace(raw), string(AssignmentClosed)) {
		return AssignmentClosed
	}
	return AssignmentPublished
}

// SubmissionStatus tracks the review of an assignment submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "Pending"
	SubmissionApproved SubmissionStatus = "Approved"
	SubmissionRejected SubmissionStatus = "Rejected"
	SubmissionRework   SubmissionStatus = "Rework"
)

// Assignment is coursework set by faculty for one class and subject.
type Assignment struct {
	ID                 string           `db:"id" json:"id"`
	FacultyID          string           `db:"faculty_id" json:"facultyId"`
	FacultyName        *string          `db:"faculty_name" json:"facultyName,omitempty"`
	ClassID            string           `db:"class_id" json:"classId"`
	ClassName          *string          `db:"class_name" json:"className,omitempty"`
	Title              string           `db:"title" json:"title"`
	Description        string           `db:"description" json:"description"`
	Subject            string           `db:"subject" json:"subject"`
	DueDate            time.Time        `db:"due_date" json:"dueDate"`
	Status             AssignmentStatus `db:"status" json:"status"`
	SubmissionsPending int              `db:"submissions_pending" json:"submissionsPending"`
	SubmissionsTotal   int              `db:"submissions_total" json:"submissionsTotal"`
	CreatedAt          time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updatedAt"`
}

// AssignmentSubmission is a student's single answer to an assignment. Resubmissions
// overwrite it in place.
type AssignmentSubmission struct {
	ID            string           `db:"id" json:"id"`
	AssignmentID  string           `db:"assignment_id" json:"assignmentId"`
	StudentID     string           `db:"student_id" json:"studentId"`
	StudentName   *string          `db:"student_name" json:"studentName,omitempty"`
	FileURL       *string          `db:"file_url" json:"fileUrl,omitempty"`
	TextAnswer    string           `db:"text_answer" json:"textAnswer"`
	Status        SubmissionStatus `db:"status" json:"status"`
	FacultyRemark string           `db:"faculty_remark" json:"facultyRemark"`
	ReviewedBy    *string          `db:"reviewed_by" json:"reviewedBy,omitempty"`
	SubmittedAt   time.Time        `db:"submitted_at" json:"submittedAt"`
	Version       int              `db:"version" json:"version"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updatedAt"`
}

// StudentAssignment is an assignment as a student sees it, with their submission if any.
type StudentAssignment struct {
	Assignment
	Submission *AssignmentSubmission `json:"submission"`
}

// Deadline is a compact upcoming assignment for dashboards.
type Deadline struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DueDate   time.Time `json:"dueDate"`
	Subject   string    `json:"subject"`
	ClassName string    `json:"className"`
	Faculty   string    `json:"faculty"`
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	FacultyID string
	ClassID   string
	Status    AssignmentStatus
	// DueFrom keeps assignments due on or after the instant.
	DueFrom *time.Time
	Limit   int
	Offset  int
}

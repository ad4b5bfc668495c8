package models

import "time"

// LeaveStatus enumerates leave request states.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// LeaveRequest is a student's absence request reviewed by faculty of the student's class.
type LeaveRequest struct {
	ID          string      `db:"id" json:"id"`
	StudentID   string      `db:"student_id" json:"studentId"`
	StudentName *string     `db:"student_name" json:"studentName,omitempty"`
	ClassName   *string     `db:"class_name" json:"className,omitempty"`
	Reason      string      `db:"reason" json:"reason"`
	StartDate   time.Time   `db:"start_date" json:"startDate"`
	EndDate     time.Time   `db:"end_date" json:"endDate"`
	FileURL     *string     `db:"file_url" json:"fileUrl,omitempty"`
	FileName    *string     `db:"file_name" json:"fileName,omitempty"`
	Status      LeaveStatus `db:"status" json:"status"`
	ReviewedBy  *string     `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time  `db:"reviewed_at" json:"reviewedAt,omitempty"`
	Remarks     *string     `db:"remarks" json:"remarks,omitempty"`
	Version     int         `db:"version" json:"version"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

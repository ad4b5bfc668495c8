package models

import "time"

// SkillStatus is the validation state of a student's skill claim.
type SkillStatus string

const (
	SkillPending  SkillStatus = "pending"
	SkillApproved SkillStatus = "approved"
	SkillRejected SkillStatus = "rejected"
)

// StudentSkill is a skill or certification a student submits for faculty validation.
type StudentSkill struct {
	ID             string      `db:"id" json:"id"`
	StudentID      string      `db:"student_id" json:"studentId"`
	StudentName    *string     `db:"student_name" json:"studentName,omitempty"`
	ClassName      *string     `db:"class_name" json:"className,omitempty"`
	Title          string      `db:"title" json:"title"`
	Provider       *string     `db:"provider" json:"provider"`
	CertificateURL *string     `db:"certificate_url" json:"certificateUrl"`
	Status         SkillStatus `db:"status" json:"status"`
	ApprovedBy     *string     `db:"approved_by" json:"approvedBy"`
	ApproverName   *string     `db:"approver_name" json:"approverName,omitempty"`
	Remarks        *string     `db:"remarks" json:"remarks"`
	Version        int         `db:"version" json:"version"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}

// StudentSkillFilter narrows skill listings. ClassNames matches the student's current class.
type StudentSkillFilter struct {
	StudentID  string
	ClassNames []string
	Status     SkillStatus
	Limit      int
	Offset     int
}

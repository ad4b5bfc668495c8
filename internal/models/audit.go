package models

import "time"

// Audit actions recorded by services.
const (
	AuditActionLogin              = "LOGIN"
	AuditActionLogout             = "LOGOUT"
	AuditActionPasswordChange     = "PASSWORD_CHANGE"
	AuditActionTokenRefresh       = "TOKEN_REFRESH"
	AuditActionTokenReuse         = "TOKEN_REUSE"
	AuditActionUserCreate         = "USER_CREATE"
	AuditActionClassCreate        = "CLASS_CREATE"
	AuditActionClassAssign        = "CLASS_ASSIGN_STUDENT"
	AuditActionComplaintCreate    = "COMPLAINT_CREATE"
	AuditActionComplaintTransit   = "COMPLAINT_TRANSITION"
	AuditActionEventCreate        = "EVENT_CREATE"
	AuditActionEventTransit       = "EVENT_TRANSITION"
	AuditActionCourseChange       = "SKILL_COURSE_CHANGE"
	AuditActionEnrollment         = "ENROLLMENT_CHANGE"
	AuditActionEnrollmentProgress = "ENROLLMENT_PROGRESS"
	AuditActionProjectReview      = "PROJECT_REVIEW"
	AuditActionLeaveApply         = "LEAVE_APPLY"
	AuditActionLeaveReview        = "LEAVE_REVIEW"
	AuditActionMessageSend        = "MESSAGE_SEND"
	AuditActionReportRequest      = "REPORT_REQUEST"
	AuditActionAttendanceMark     = "ATTENDANCE_MARK"
	AuditActionAnnouncementCreate = "ANNOUNCEMENT_CREATE"
	AuditActionAnnouncementUpdate = "ANNOUNCEMENT_UPDATE"
	AuditActionAnnouncementDelete = "ANNOUNCEMENT_DELETE"
	AuditActionGradeSheetCreate   = "GRADE_SHEET_CREATE"
	AuditActionGradeUpdate        = "GRADE_UPDATE"
	AuditActionAssignmentCreate   = "ASSIGNMENT_CREATE"
	AuditActionAssignmentSubmit   = "ASSIGNMENT_SUBMIT"
	AuditActionSubmissionReview   = "SUBMISSION_REVIEW"
	AuditActionJobChange          = "JOB_CHANGE"
	AuditActionApplicationCreate  = "APPLICATION_CREATE"
	AuditActionApplicationTransit = "APPLICATION_TRANSITION"
	AuditActionInterviewSchedule  = "INTERVIEW_SCHEDULE"
	AuditActionOfferSend          = "OFFER_SEND"
	AuditActionSkillSubmit        = "SKILL_SUBMIT"
	AuditActionSkillReview        = "SKILL_REVIEW"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"userId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  []byte    `db:"old_values" json:"oldValues,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

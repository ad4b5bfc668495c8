package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"
)

// JobStatus is the lifecycle of a job posting.
type JobStatus string

const (
	JobActive    JobStatus = "Active"
	JobDraft     JobStatus = "Draft"
	JobScreening JobStatus = "Screening"
	JobClosed    JobStatus = "Closed"
)

// ParseJobStatus matches raw input against the known statuses ignoring case.
func ParseJobStatus(raw string) (JobStatus, bool) {
	for _, s := range []JobStatus{JobActive, JobDraft, JobScreening, JobClosed} {
		if strings.EqualFold(strings.TrimSpace(raw), string(s)) {
			return s, true
		}
	}
	return "", false
}

// ApplicationStatus is the stage of a student's job application.
type ApplicationStatus string

const (
	ApplicationPending            ApplicationStatus = "Pending"
	ApplicationShortlisted        ApplicationStatus = "Shortlisted"
	ApplicationInterviewScheduled ApplicationStatus = "Interview Scheduled"
	ApplicationOffered            ApplicationStatus = "Offered"
	ApplicationRejected           ApplicationStatus = "Rejected"
	ApplicationWithdrawn          ApplicationStatus = "Withdrawn"
)

// InterviewStatus tracks an interview round.
type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "Scheduled"
	InterviewCompleted InterviewStatus = "Completed"
	InterviewCancelled InterviewStatus = "Cancelled"
)

// OfferStatus tracks an offer letter.
type OfferStatus string

const (
	OfferPending  OfferStatus = "Pending"
	OfferAccepted OfferStatus = "Accepted"
	OfferRejected OfferStatus = "Rejected"
	OfferExpired  OfferStatus = "Expired"
)

// JobEligibility is stored as JSONB.
type JobEligibility struct {
	Departments []string `json:"departments,omitempty"`
	CGPA        string   `json:"cgpa,omitempty"`
	Skills      []string `json:"skills,omitempty"`
}

// Value implements driver.Valuer.
func (e JobEligibility) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan implements sql.Scanner.
func (e *JobEligibility) Scan(src interface{}) error {
	return scanJSON(src, e)
}

// Job is a placement opening posted by HR or admin.
type Job struct {
	ID               string         `db:"id" json:"id"`
	Title            string         `db:"title" json:"title"`
	Company          string         `db:"company" json:"company"`
	JobType          string         `db:"job_type" json:"jobType"`
	Mode             string         `db:"mode" json:"mode"`
	Location         string         `db:"location" json:"location"`
	Salary           string         `db:"salary" json:"salary"`
	Openings         *int           `db:"openings" json:"openings,omitempty"`
	Status           JobStatus      `db:"status" json:"status"`
	Eligibility      JobEligibility `db:"eligibility" json:"eligibility"`
	Description      string         `db:"description" json:"description"`
	Responsibilities StringList     `db:"responsibilities" json:"responsibilities"`
	Deadline         *time.Time     `db:"deadline" json:"deadline,omitempty"`
	CreatedBy        string         `db:"created_by" json:"createdBy"`
	CreatorName      *string        `db:"creator_name" json:"creatorName,omitempty"`
	Version          int            `db:"version" json:"version"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// JobApplication is a student's application to a job. A student applies at most once.
type JobApplication struct {
	ID          string            `db:"id" json:"id"`
	JobID       string            `db:"job_id" json:"jobId"`
	JobTitle    *string           `db:"job_title" json:"jobTitle,omitempty"`
	Company     *string           `db:"company" json:"company,omitempty"`
	JobOwner    *string           `db:"job_owner" json:"-"`
	StudentID   string            `db:"student_id" json:"studentId"`
	StudentName *string           `db:"student_name" json:"studentName,omitempty"`
	Status      ApplicationStatus `db:"status" json:"status"`
	ResumeURL   string            `db:"resume_url" json:"resumeUrl"`
	ResumeName  *string           `db:"resume_name" json:"resumeName,omitempty"`
	Notes       string            `db:"notes" json:"notes"`
	Version     int               `db:"version" json:"version"`
	CreatedAt   time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updatedAt"`
}

// Interview is one scheduled round for an application.
type Interview struct {
	ID            string          `db:"id" json:"id"`
	ApplicationID string          `db:"application_id" json:"applicationId"`
	JobID         string          `db:"job_id" json:"jobId"`
	JobTitle      *string         `db:"job_title" json:"jobTitle,omitempty"`
	Company       *string         `db:"company" json:"company,omitempty"`
	StudentID     string          `db:"student_id" json:"studentId"`
	StudentName   *string         `db:"student_name" json:"studentName,omitempty"`
	ScheduledBy   string          `db:"scheduled_by" json:"scheduledBy"`
	ScheduledAt   time.Time       `db:"scheduled_at" json:"scheduledAt"`
	Mode          string          `db:"mode" json:"mode"`
	RoundType     string          `db:"round_type" json:"roundType"`
	MeetingLink   string          `db:"meeting_link" json:"meetingLink"`
	Status        InterviewStatus `db:"status" json:"status"`
	Notes         string          `db:"notes" json:"notes"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// Offer is an offer extended on an application.
type Offer struct {
	ID              string      `db:"id" json:"id"`
	ApplicationID   string      `db:"application_id" json:"applicationId"`
	JobID           string      `db:"job_id" json:"jobId"`
	JobTitle        *string     `db:"job_title" json:"jobTitle,omitempty"`
	Company         *string     `db:"company" json:"company,omitempty"`
	StudentID       string      `db:"student_id" json:"studentId"`
	StudentName     *string     `db:"student_name" json:"studentName,omitempty"`
	IssuedBy        string      `db:"issued_by" json:"issuedBy"`
	CTC             string      `db:"ctc" json:"ctc"`
	Status          OfferStatus `db:"status" json:"status"`
	OfferLetterURL  *string     `db:"offer_letter_url" json:"offerLetterUrl,omitempty"`
	OfferLetterName *string     `db:"offer_letter_name" json:"offerLetterName,omitempty"`
	IssuedOn        time.Time   `db:"issued_on" json:"issuedOn"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updatedAt"`
}

// JobFilter narrows job listings.
type JobFilter struct {
	Status    JobStatus
	CreatedBy string
	Limit     int
	Offset    int
}

// PlacementFilter narrows application, interview and offer listings.
type PlacementFilter struct {
	JobID     string
	StudentID string
	// JobOwner keeps records of jobs created by the user.
	JobOwner string
	Limit    int
	Offset   int
}

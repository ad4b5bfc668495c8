package dto

import "github.com/noah-isme/campus-api/internal/models"

// JobRequest creates a job. On update every field is optional and Version is required.
type JobRequest struct {
	Title            string                 `json:"title"`
	Company          string                 `json:"company"`
	JobType          string                 `json:"jobType"`
	Mode             string                 `json:"mode"`
	Location         string                 `json:"location"`
	Salary           string                 `json:"salary"`
	Openings         *int                   `json:"openings" validate:"omitempty,gt=0"`
	Status           string                 `json:"status"`
	Eligibility      *models.JobEligibility `json:"eligibility"`
	Description      string                 `json:"description"`
	Responsibilities []string               `json:"responsibilities"`
	Deadline         string                 `json:"deadline"`
	Version          int                    `json:"version"`
}

// JobQuery filters GET /placements/jobs.
type JobQuery struct {
	Status string `form:"status"`
	Mine   bool   `form:"mine"`
}

// ApplyJobRequest is the body of POST /placements/jobs/:id/apply. The resume is uploaded beforehand.
type ApplyJobRequest struct {
	ResumeURL  string `json:"resumeUrl"`
	ResumeName string `json:"resumeName"`
	Notes      string `json:"notes"`
}

// ApplicationQuery filters application, interview and offer listings.
type ApplicationQuery struct {
	JobID string `form:"jobId"`
}

// ApplicationStatusRequest moves an application to another stage.
type ApplicationStatusRequest struct {
	Status  string `json:"status"`
	Notes   string `json:"notes"`
	Version int    `json:"version" validate:"required,min=1"`
}

// ScheduleInterviewRequest books an interview round. Date is YYYY-MM-DD and Time is HH:MM in UTC.
type ScheduleInterviewRequest struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	Mode        string `json:"mode"`
	RoundType   string `json:"roundType"`
	MeetingLink string `json:"meetingLink"`
	Notes       string `json:"notes"`
	Version     int    `json:"version" validate:"required,min=1"`
}

// SendOfferRequest extends an offer on an application.
type SendOfferRequest struct {
	CTC             string `json:"ctc"`
	OfferLetterURL  string `json:"offerLetterUrl"`
	OfferLetterName string `json:"offerLetterName"`
	Version         int    `json:"version" validate:"required,min=1"`
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType selects which attendance dataset a job renders.
type ReportType string

const (
	ReportTypeClassAttendance   ReportType = "class_attendance"
	ReportTypeStudentAttendance ReportType = "student_attendance"
)

type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatPDF
}

// MediaType is the Content-Type served for downloads in this format.
func (f ReportFormat) MediaType() string {
	switch f {
	case ReportFormatPDF:
		return "application/pdf"
	case ReportFormatCSV:
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// ReportStatus moves QUEUED -> PROCESSING -> FINISHED | FAILED. A failed attempt with
// retries left goes back to QUEUED.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// Terminal reports whether no further transition is allowed.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusFinished || s == ReportStatusFailed
}

// ReportJob is one attendance export request and its rendering progress.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	Type         ReportType      `db:"type" json:"type"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"resultUrl,omitempty"`
	CreatedBy    string          `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finishedAt,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error,omitempty"`
}

// ReportJobParams is stored in the params JSONB column.
type ReportJobParams struct {
	ClassID     string       `json:"classId,omitempty"`
	SubjectName string       `json:"subjectName,omitempty"`
	StudentID   string       `json:"studentId,omitempty"`
	Format      ReportFormat `json:"format"`
}

func (p ReportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report job params: %w", err)
	}
	return data, nil
}

func (p *ReportJobParams) Scan(value interface{}) error {
	if value == nil {
		*p = ReportJobParams{}
		return nil
	}
	if err := scanJSON(value, p); err != nil {
		return fmt.Errorf("unmarshal report job params: %w", err)
	}
	return nil
}

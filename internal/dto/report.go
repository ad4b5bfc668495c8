package dto

import (
	"time"

	"github.com/noah-isme/campus-api/internal/models"
)

// ReportRequest asks for an attendance export. ClassID is required for class reports;
// StudentID defaults to the caller for students.
type ReportRequest struct {
	Type        models.ReportType   `json:"type" binding:"required"`
	Format      models.ReportFormat `json:"format" binding:"required"`
	ClassID     string              `json:"classId,omitempty"`
	SubjectName string              `json:"subjectName,omitempty"`
	StudentID   string              `json:"studentId,omitempty"`
}

type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse is one job as seen by its creator. ResultURL is set once the
// job finishes and carries the signed download token.
type ReportStatusResponse struct {
	ID         string              `json:"id"`
	Type       models.ReportType   `json:"type"`
	Format     models.ReportFormat `json:"format,omitempty"`
	Status     models.ReportStatus `json:"status"`
	Progress   int                 `json:"progress"`
	ResultURL  *string             `json:"resultUrl,omitempty"`
	Error      *string             `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	FinishedAt *time.Time          `json:"finishedAt,omitempty"`
}

package dto

import "github.com/noah-isme/campus-api/internal/models"

// MarkAttendanceRequest is the body of POST /attendance/mark-subject.
type MarkAttendanceRequest struct {
	ClassID     string                    `json:"classId" validate:"required"`
	SubjectName string                    `json:"subjectName" validate:"required"`
	Date        string                    `json:"date" validate:"required"`
	Records     []AttendanceRecordRequest `json:"records" validate:"required,min=1,dive"`
}

// AttendanceRecordRequest marks one student. An empty status means present.
type AttendanceRecordRequest struct {
	StudentID string                  `json:"studentId" validate:"required"`
	Status    models.AttendanceStatus `json:"status"`
}

// ClassAttendanceQuery narrows GET /attendance/class-subject.
type ClassAttendanceQuery struct {
	ClassID     string `form:"classId" validate:"required"`
	SubjectName string `form:"subjectName"`
	Date        string `form:"date"`
}

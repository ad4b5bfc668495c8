package models

import "time"

// AttendanceStatus is the mark recorded for one student in one session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	default:
		return false
	}
}

// Attendance is one session, unique per class, subject, day and faculty.
type Attendance struct {
	ID          string             `db:"id" json:"id"`
	ClassID     string             `db:"class_id" json:"classId"`
	FacultyID   string             `db:"faculty_id" json:"facultyId"`
	SubjectName string             `db:"subject_name" json:"subjectName"`
	Date        time.Time          `db:"session_date" json:"date"`
	Records     []AttendanceRecord `db:"-" json:"records"`
	CreatedAt   time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updatedAt"`
}

// AttendanceRecord is a single student's mark.
type AttendanceRecord struct {
	AttendanceID string           `db:"attendance_id" json:"-"`
	StudentID    string           `db:"student_id" json:"studentId"`
	StudentName  *string          `db:"student_name" json:"studentName,omitempty"`
	Status       AttendanceStatus `db:"status" json:"status"`
}

// StudentAttendanceRow is a flattened (subject, status) pair used for summaries.
type StudentAttendanceRow struct {
	SubjectName string           `db:"subject_name"`
	ClassName   string           `db:"class_name"`
	Date        time.Time        `db:"session_date"`
	Status      AttendanceStatus `db:"status"`
}

// SubjectAttendance aggregates one subject's marks for a student.
type SubjectAttendance struct {
	SubjectName  string  `json:"subjectName"`
	TotalClasses int     `json:"totalClasses"`
	PresentCount int     `json:"presentCount"`
	AbsentCount  int     `json:"absentCount"`
	LateCount    int     `json:"lateCount"`
	Percentage   float64 `json:"percentage"`
}

// AttendanceSummary is the per-subject breakdown plus an overall line.
type AttendanceSummary struct {
	StudentID string              `json:"studentId"`
	Subjects  []SubjectAttendance `json:"subjects"`
	Overall   SubjectAttendance   `json:"overall"`
}

// NormalizeAttendanceDate truncates t to the UTC calendar day.
func NormalizeAttendanceDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

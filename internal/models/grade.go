package models

import "time"

// GradeSheet is one assessment of a class in a subject with an entry per student.
type GradeSheet struct {
	ID          string       `db:"id" json:"id"`
	ClassID     string       `db:"class_id" json:"classId"`
	ClassName   *string      `db:"class_name" json:"className,omitempty"`
	Subject     string       `db:"subject" json:"subject"`
	FacultyID   string       `db:"faculty_id" json:"facultyId"`
	FacultyName *string      `db:"faculty_name" json:"facultyName,omitempty"`
	Title       string       `db:"title" json:"title"`
	ExamType    string       `db:"exam_type" json:"examType"`
	Grades      []GradeEntry `db:"-" json:"grades"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
}

// Entry returns the grade entry of a student.
func (g *GradeSheet) Entry(studentID string) (*GradeEntry, bool) {
	for i := range g.Grades {
		if g.Grades[i].StudentID == studentID {
			return &g.Grades[i], true
		}
	}
	return nil, false
}

// GradeEntry holds one student's result on a sheet. Scores stay nil until graded.
type GradeEntry struct {
	ID            string    `db:"id" json:"id"`
	SheetID       string    `db:"sheet_id" json:"sheetId"`
	StudentID     string    `db:"student_id" json:"studentId"`
	StudentName   *string   `db:"student_name" json:"studentName,omitempty"`
	MaxScore      *float64  `db:"max_score" json:"maxScore"`
	ObtainedScore *float64  `db:"obtained_score" json:"obtainedScore"`
	Grade         *string   `db:"grade" json:"grade"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// StudentGrade is a sheet seen by one student: the sheet header and only their entry.
type StudentGrade struct {
	SheetID     string      `json:"id"`
	Title       string      `json:"title"`
	Subject     string      `json:"subject"`
	ExamType    string      `json:"examType"`
	ClassID     string      `json:"classId"`
	ClassName   *string     `json:"className,omitempty"`
	FacultyID   string      `json:"facultyId"`
	FacultyName *string     `json:"facultyName,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	Grade       *GradeEntry `json:"grade"`
}

// GradeSheetFilter narrows grade sheet listings.
type GradeSheetFilter struct {
	FacultyID string
	ClassID   string
	Subject   string
	// StudentID keeps sheets holding an entry for the student and loads only that entry.
	StudentID string
	Limit     int
	Offset    int
}

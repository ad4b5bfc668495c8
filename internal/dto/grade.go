package dto

// GenerateGradeSheetRequest is the body of POST /grades/generate.
type GenerateGradeSheetRequest struct {
	ClassID  string `json:"classId" validate:"required"`
	Subject  string `json:"subject" validate:"required"`
	Title    string `json:"title" validate:"required"`
	ExamType string `json:"examType" validate:"required"`
}

// UpdateGradeRequest is the body of PUT /grades/:id/grade/:studentId.
type UpdateGradeRequest struct {
	MaxScore      *float64 `json:"maxScore" validate:"required,gt=0"`
	ObtainedScore *float64 `json:"obtainedScore" validate:"required,gte=0"`
	Grade         string   `json:"grade" validate:"required"`
}

// GradeSheetQuery filters GET /grades/faculty.
type GradeSheetQuery struct {
	ClassID string `form:"classId"`
	Subject string `form:"subject"`
}

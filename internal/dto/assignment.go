package dto

// CreateAssignmentRequest is the body of POST /assignments. DueDate is YYYY-MM-DD or RFC3339.
type CreateAssignmentRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate" validate:"required"`
	Subject     string `json:"subject" validate:"required"`
	ClassID     string `json:"classId" validate:"required"`
	Status      string `json:"status"`
}

// SubmitAssignmentRequest is the body of POST /assignments/:id/submit.
type SubmitAssignmentRequest struct {
	FileURL    *string `json:"fileUrl"`
	TextAnswer string  `json:"textAnswer"`
}

// ReviewSubmissionRequest drives PATCH /assignments/submissions/:submissionId/status.
type ReviewSubmissionRequest struct {
	Status        string `json:"status"`
	FacultyRemark string `json:"facultyRemark"`
}

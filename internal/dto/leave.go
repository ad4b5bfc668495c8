package dto

// ApplyLeaveRequest is the body of POST /leaves.
type ApplyLeaveRequest struct {
	Reason    string  `json:"reason" validate:"required"`
	StartDate string  `json:"startDate" validate:"required"`
	EndDate   string  `json:"endDate" validate:"required"`
	FileURL   *string `json:"fileUrl"`
	FileName  *string `json:"fileName"`
}

// ReviewLeaveRequest drives PATCH /leaves/:id/status.
type ReviewLeaveRequest struct {
	Status  string `json:"status" validate:"required"`
	Remarks string `json:"remarks"`
}

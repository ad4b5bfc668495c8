package dto

// CreateComplaintRequest is the body of POST /complaints/student and /complaints/faculty.
type CreateComplaintRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ComplaintActionRequest drives PATCH /complaints/:id/faculty-action and /admin-action.
type ComplaintActionRequest struct {
	ActionType string `json:"actionType" validate:"required"`
	Comment    string `json:"comment"`
}

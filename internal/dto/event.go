package dto

// CreateEventRequest is the body of POST /events.
type CreateEventRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Location        string `json:"location"`
	Section         string `json:"section"`
	FacultyInCharge string `json:"facultyInCharge"`
	Origin          string `json:"origin"`
}

// EventStatusRequest drives PATCH /events/:id/status.
type EventStatusRequest struct {
	Action string `json:"action" validate:"required"`
}

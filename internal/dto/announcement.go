package dto

import "time"

// CreateAnnouncementRequest is the body of POST /announcements.
type CreateAnnouncementRequest struct {
	Title          string     `json:"title" validate:"required"`
	Message        string     `json:"message" validate:"required"`
	Priority       string     `json:"priority" validate:"required,priority"`
	TargetAudience string     `json:"targetAudience" validate:"omitempty,audience"`
	Classes        []string   `json:"classes"`
	ExpiresAt      *time.Time `json:"expiresAt"`
}

// UpdateAnnouncementRequest is the body of PUT /announcements/:id. Absent fields are kept.
type UpdateAnnouncementRequest struct {
	Title          *string    `json:"title"`
	Message        *string    `json:"message"`
	Priority       *string    `json:"priority" validate:"omitempty,priority"`
	TargetAudience *string    `json:"targetAudience" validate:"omitempty,audience"`
	Classes        []string   `json:"classes"`
	ExpiresAt      *time.Time `json:"expiresAt"`
}

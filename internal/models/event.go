package models

import "time"

// EventStatus enumerates event proposal states.
type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusApproved  EventStatus = "approved"
	EventStatusRejected  EventStatus = "rejected"
	EventStatusForwarded EventStatus = "forwarded"
)

// EventAction is the verb sent to the status endpoint.
type EventAction string

const (
	EventActionApprove EventAction = "approved"
	EventActionReject  EventAction = "rejected"
	EventActionForward EventAction = "forward"
)

// Event is a campus event proposal.
type Event struct {
	ID               string      `db:"id" json:"id"`
	Title            string      `db:"title" json:"title"`
	Description      string      `db:"description" json:"description,omitempty"`
	Date             string      `db:"event_date" json:"date"`
	Time             string      `db:"event_time" json:"time"`
	Location         string      `db:"location" json:"location,omitempty"`
	Section          string      `db:"section" json:"section,omitempty"`
	FacultyInCharge  string      `db:"faculty_in_charge" json:"facultyInCharge,omitempty"`
	Origin           string      `db:"origin" json:"origin,omitempty"`
	Status           EventStatus `db:"status" json:"status"`
	SubmittedByName  string      `db:"submitted_by_name" json:"submittedByName,omitempty"`
	SubmittedByRole  Role        `db:"submitted_by_role" json:"submittedByRole"`
	CreatedBy        string      `db:"created_by" json:"createdBy"`
	ForwardedToAdmin bool        `db:"forwarded_to_admin" json:"forwardedToAdmin"`
	ReviewedBy       *string     `db:"reviewed_by" json:"reviewedBy,omitempty"`
	Version          int         `db:"version" json:"version"`
	CreatedAt        time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updatedAt"`
}

// EventFilter narrows event listings. Nil pointers are ignored.
type EventFilter struct {
	Statuses         []EventStatus
	SubmittedByRoles []Role
	CreatedBy        string
	ForwardedToAdmin *bool
	// AdminQueue selects forwarded events plus everything submitted by admins.
	AdminQueue bool
	Limit      int
	Offset     int
}

package models

import "time"

// ComplaintStatus enumerates complaint lifecycle states.
type ComplaintStatus string

const (
	ComplaintStatusPendingFaculty ComplaintStatus = "pending_faculty"
	ComplaintStatusPendingAdmin   ComplaintStatus = "pending_admin"
	ComplaintStatusResolved       ComplaintStatus = "resolved"
	ComplaintStatusRejected       ComplaintStatus = "rejected"
)

// ComplaintAction is the verb a caller requests on a complaint.
type ComplaintAction string

const (
	ComplaintActionResolve          ComplaintAction = "resolve"
	ComplaintActionReject           ComplaintAction = "reject"
	ComplaintActionEscalate         ComplaintAction = "escalate"
	ComplaintActionAckAdminDecision ComplaintAction = "ack-admin-resolution"
	ComplaintActionComment          ComplaintAction = "comment"
)

// ComplaintHistoryAction labels entries of the complaint timeline.
type ComplaintHistoryAction string

const (
	HistoryCreated                  ComplaintHistoryAction = "Created"
	HistoryComment                  ComplaintHistoryAction = "Comment"
	HistoryResolved                 ComplaintHistoryAction = "Resolved"
	HistoryRejected                 ComplaintHistoryAction = "Rejected"
	HistoryEscalatedToAdmin         ComplaintHistoryAction = "EscalatedToAdmin"
	HistoryAdminResolved            ComplaintHistoryAction = "AdminResolved"
	HistoryMarkedResolvedForStudent ComplaintHistoryAction = "MarkedResolvedForStudent"
)

// DefaultComplaintCategory applies when the raiser leaves category empty.
const DefaultComplaintCategory = "General"

// Complaint is routed between student, faculty and admin by CurrentOwner.
type Complaint struct {
	ID                string                  `db:"id" json:"id"`
	Title             string                  `db:"title" json:"title"`
	Description       string                  `db:"description" json:"description"`
	Category          string                  `db:"category" json:"category"`
	RaisedByID        string                  `db:"raised_by_id" json:"-"`
	RaisedByRole      Role                    `db:"raised_by_role" json:"-"`
	CurrentOwner      Role                    `db:"current_owner" json:"currentOwner"`
	Status            ComplaintStatus         `db:"status" json:"status"`
	TargetClassID     *string                 `db:"target_class_id" json:"targetClassId,omitempty"`
	TargetFacultyID   *string                 `db:"target_faculty_id" json:"targetFacultyId,omitempty"`
	Version           int                     `db:"version" json:"version"`
	CreatedAt         time.Time               `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time               `db:"updated_at" json:"updatedAt"`
	RaisedByName      *string                 `db:"raised_by_name" json:"-"`
	TargetFacultyName *string                 `db:"target_faculty_name" json:"targetFacultyName,omitempty"`
	TargetClassName   *string                 `db:"target_class_name" json:"targetClassName,omitempty"`
	RaisedBy          ComplaintRaiser         `db:"-" json:"raisedBy"`
	History           []ComplaintHistoryEntry `db:"-" json:"history,omitempty"`
}

// ComplaintRaiser is the populated raisedBy reference.
type ComplaintRaiser struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	Name   string `json:"name,omitempty"`
}

// ComplaintHistoryEntry is one append-only timeline record.
type ComplaintHistoryEntry struct {
	ID          string                 `db:"id" json:"id"`
	ComplaintID string                 `db:"complaint_id" json:"-"`
	Seq         int                    `db:"seq" json:"seq"`
	ActorID     string                 `db:"actor_id" json:"actorId"`
	ActorRole   Role                   `db:"actor_role" json:"actorRole"`
	ActorName   *string                `db:"actor_name" json:"actorName,omitempty"`
	Action      ComplaintHistoryAction `db:"action" json:"action"`
	Comment     string                 `db:"comment" json:"comment,omitempty"`
	CreatedAt   time.Time              `db:"created_at" json:"createdAt"`
}

// FacultyIDValue returns the target faculty id or an empty string.
func (c *Complaint) FacultyIDValue() string {
	if c == nil || c.TargetFacultyID == nil {
		return ""
	}
	return *c.TargetFacultyID
}

// Populate fills the composite raisedBy reference from the flat columns.
func (c *Complaint) Populate() {
	if c == nil {
		return
	}
	c.RaisedBy = ComplaintRaiser{UserID: c.RaisedByID, Role: c.RaisedByRole}
	if c.RaisedByName != nil {
		c.RaisedBy.Name = *c.RaisedByName
	}
}

// ComplaintFilter narrows complaint listings.
type ComplaintFilter struct {
	Owner           *Role
	Statuses        []ComplaintStatus
	TargetFacultyID string
	RaisedByID      string
	RaisedByRole    *Role
	Limit           int
	Offset          int
}

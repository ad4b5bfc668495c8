package models

import (
	"time"

	"github.com/lib/pq"
)

// AnnouncementPriority ranks announcements on listings.
type AnnouncementPriority string

// AnnouncementAudience selects which role sees an announcement.
type AnnouncementAudience string

const (
	AnnouncementPriorityHigh   AnnouncementPriority = "high"
	AnnouncementPriorityMedium AnnouncementPriority = "medium"
	AnnouncementPriorityLow    AnnouncementPriority = "low"

	AnnouncementAudienceStudents AnnouncementAudience = "students"
	AnnouncementAudienceFaculty  AnnouncementAudience = "faculty"
	AnnouncementAudienceAll      AnnouncementAudience = "all"
)

// Announcement is a notice published by faculty or admin. An empty Classes list
// addresses every class.
type Announcement struct {
	ID             string               `db:"id" json:"id"`
	Title          string               `db:"title" json:"title"`
	Message        string               `db:"message" json:"message"`
	Priority       AnnouncementPriority `db:"priority" json:"priority"`
	TargetAudience AnnouncementAudience `db:"target_audience" json:"targetAudience"`
	Classes        pq.StringArray       `db:"classes" json:"classes"`
	ExpiresAt      *time.Time           `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedBy      string               `db:"created_by" json:"createdBy"`
	CreatorName    *string              `db:"creator_name" json:"creatorName,omitempty"`
	CreatedAt      time.Time            `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time            `db:"updated_at" json:"updatedAt"`
}

// Expired reports whether the announcement stopped being visible at now.
func (a Announcement) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}

// AnnouncementFilter narrows announcement listings.
type AnnouncementFilter struct {
	Audiences []AnnouncementAudience
	// ClassName keeps global announcements plus those addressed to the class.
	ClassName *string
	CreatedBy string
	// ActiveAt hides announcements expired at the given instant.
	ActiveAt *time.Time
	Limit    int
	Offset   int
}

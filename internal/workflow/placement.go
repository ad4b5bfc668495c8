package workflow

import (
	"fmt"
	"strings"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// applicationMoves lists the stages a recruiter may move an application to from each stage.
// Another interview round keeps an application in Interview Scheduled.
var applicationMoves = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.ApplicationPending:            {models.ApplicationShortlisted, models.ApplicationInterviewScheduled, models.ApplicationOffered, models.ApplicationRejected},
	models.ApplicationShortlisted:        {models.ApplicationInterviewScheduled, models.ApplicationOffered, models.ApplicationRejected},
	models.ApplicationInterviewScheduled: {models.ApplicationInterviewScheduled, models.ApplicationOffered, models.ApplicationRejected},
	models.ApplicationOffered:            {models.ApplicationRejected},
}

var applicationStatuses = []models.ApplicationStatus{
	models.ApplicationPending, models.ApplicationShortlisted, models.ApplicationInterviewScheduled,
	models.ApplicationOffered, models.ApplicationRejected, models.ApplicationWithdrawn,
}

// ParseApplicationStatus matches raw input against the application stages ignoring case.
func ParseApplicationStatus(raw string) (models.ApplicationStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "Status is required")
	}
	for _, s := range applicationStatuses {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown application status %q", raw))
}

// ApplicationTransition validates moving an application to next. Only the applicant may
// withdraw and only recruiters may move it anywhere else.
func ApplicationTransition(current, next models.ApplicationStatus, role models.Role) error {
	switch {
	case next == models.ApplicationWithdrawn && role != models.RoleStudent:
		return appErrors.Clone(appErrors.ErrForbiddenTransition, "only the applicant can withdraw an application")
	case next != models.ApplicationWithdrawn && role == models.RoleStudent:
		return appErrors.Clone(appErrors.ErrForbiddenTransition, "students can only withdraw applications")
	}
	if current == models.ApplicationRejected || current == models.ApplicationWithdrawn {
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("application is already %s", strings.ToLower(string(current))))
	}
	if next == models.ApplicationWithdrawn {
		return nil
	}
	for _, allowed := range applicationMoves[current] {
		if allowed == next {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move application from %s to %s", current, next))
}

// AcceptsApplications reports whether students may apply to a job in status.
func AcceptsApplications(status models.JobStatus) error {
	switch status {
	case models.JobClosed, models.JobDraft:
		return appErrors.Clone(appErrors.ErrInvalidTransition, "This job is not accepting applications")
	}
	return nil
}
